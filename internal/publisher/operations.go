package publisher

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"importer/internal/models"
)

// weightUnits maps scraped weight-unit names to the catalog API's enum
// vocabulary.
var weightUnits = map[string]string{
	"kg":        "KILOGRAMS",
	"kilograms": "KILOGRAMS",
	"g":         "GRAMS",
	"grams":     "GRAMS",
	"lb":        "POUNDS",
	"lbs":       "POUNDS",
	"pounds":    "POUNDS",
	"oz":        "OUNCES",
	"ounces":    "OUNCES",
}

func catalogWeightUnit(unit string) string {
	if mapped, ok := weightUnits[unit]; ok {
		return mapped
	}
	return "GRAMS"
}

// ProductCreateInput is the minimal product-creation payload.
type ProductCreateInput struct {
	Title           string
	DescriptionHTML string
	Vendor          string
	ProductType     string
	Tags            []string
	Status          string
}

// CreatedProduct is the outcome of a successful creation: the new product id
// and its default variant's id, which the variant-update step targets.
type CreatedProduct struct {
	ID               string
	DefaultVariantID string
}

const productCreateMutation = `
mutation productCreate($input: ProductInput!) {
  productCreate(input: $input) {
    product {
      id
      variants(first: 1) { nodes { id } }
    }
    userErrors { field message }
  }
}`

// CreateProduct creates a product with its basic fields. Field-level user
// errors come back as the second return value; they mean the product was not
// created.
func (c *Client) CreateProduct(ctx context.Context, input ProductCreateInput) (*CreatedProduct, []UserError, error) {
	variables := map[string]interface{}{
		"input": map[string]interface{}{
			"title":           input.Title,
			"descriptionHtml": input.DescriptionHTML,
			"vendor":          input.Vendor,
			"productType":     input.ProductType,
			"tags":            input.Tags,
			"status":          input.Status,
		},
	}

	data, err := c.execute(ctx, productCreateMutation, variables)
	if err != nil {
		return nil, nil, err
	}

	if userErrors := decodeUserErrors(data, "productCreate", "userErrors"); len(userErrors) > 0 {
		return nil, userErrors, nil
	}

	created := &CreatedProduct{
		ID: digString(data, "productCreate", "product", "id"),
	}
	if nodes, ok := dig(data, "productCreate", "product", "variants", "nodes").([]interface{}); ok && len(nodes) > 0 {
		if node, ok := nodes[0].(map[string]interface{}); ok {
			created.DefaultVariantID, _ = node["id"].(string)
		}
	}
	if created.ID == "" {
		return nil, nil, fmt.Errorf("product creation returned no id")
	}
	return created, nil, nil
}

const locationsQuery = `
query locations {
  locations(first: 1) {
    nodes { id }
  }
}`

// primaryLocation resolves and caches the shop's first location, the target
// for inventory quantity writes.
func (c *Client) primaryLocation(ctx context.Context) (string, error) {
	if c.locationID != "" {
		return c.locationID, nil
	}

	data, err := c.execute(ctx, locationsQuery, nil)
	if err != nil {
		return "", err
	}

	nodes, ok := dig(data, "locations", "nodes").([]interface{})
	if !ok || len(nodes) == 0 {
		return "", fmt.Errorf("shop has no locations")
	}
	node, ok := nodes[0].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("locations query returned malformed node")
	}
	id, _ := node["id"].(string)
	if id == "" {
		return "", fmt.Errorf("locations query returned no id")
	}

	c.locationID = id
	return id, nil
}

const variantsBulkUpdateMutation = `
mutation productVariantsBulkUpdate($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
  productVariantsBulkUpdate(productId: $productId, variants: $variants) {
    userErrors { field message }
  }
}`

// UpdateDefaultVariant sets price, compare-at, sku, weight and inventory
// quantity on a product's default variant. Quantity needs a location; when
// none can be resolved the rest of the update still goes through.
func (c *Client) UpdateDefaultVariant(ctx context.Context, productID, variantID string, variant models.ProductVariant, settings models.StoreSettings) error {
	input := map[string]interface{}{
		"id":              variantID,
		"price":           variant.Price,
		"taxable":         settings.ChargeVAT,
		"inventoryPolicy": catalogInventoryPolicy(settings.InventoryPolicy),
		"inventoryItem": map[string]interface{}{
			"sku": variant.SKU,
			"measurement": map[string]interface{}{
				"weight": map[string]interface{}{
					"value": variant.Weight,
					"unit":  catalogWeightUnit(variant.WeightUnit),
				},
			},
		},
	}
	if variant.CompareAtPrice != nil {
		input["compareAtPrice"] = *variant.CompareAtPrice
	}
	if variant.InventoryQuantity > 0 {
		location, err := c.primaryLocation(ctx)
		if err != nil {
			c.logger.Warn("Skipping inventory quantity for variant %s, no location: %v", variantID, err)
		} else {
			input["inventoryQuantities"] = []interface{}{
				map[string]interface{}{
					"availableQuantity": variant.InventoryQuantity,
					"locationId":        location,
				},
			}
		}
	}

	variables := map[string]interface{}{
		"productId": productID,
		"variants":  []interface{}{input},
	}

	data, err := c.execute(ctx, variantsBulkUpdateMutation, variables)
	if err != nil {
		return err
	}
	if userErrors := decodeUserErrors(data, "productVariantsBulkUpdate", "userErrors"); len(userErrors) > 0 {
		return fmt.Errorf("variant update rejected: %s", formatUserErrors(userErrors))
	}
	return nil
}

func catalogInventoryPolicy(policy string) string {
	if policy == "continue" {
		return "CONTINUE"
	}
	return "DENY"
}

const productCreateMediaMutation = `
mutation productCreateMedia($productId: ID!, $media: [CreateMediaInput!]!) {
  productCreateMedia(productId: $productId, media: $media) {
    mediaUserErrors { field message }
  }
}`

// CreateMedia attaches one image to a product by source URL. The source may
// be a remote storefront URL or a staged-upload resource URL.
func (c *Client) CreateMedia(ctx context.Context, productID, sourceURL, alt string) error {
	variables := map[string]interface{}{
		"productId": productID,
		"media": []interface{}{
			map[string]interface{}{
				"originalSource":   sourceURL,
				"alt":              alt,
				"mediaContentType": "IMAGE",
			},
		},
	}

	data, err := c.execute(ctx, productCreateMediaMutation, variables)
	if err != nil {
		return err
	}
	if userErrors := decodeUserErrors(data, "productCreateMedia", "mediaUserErrors"); len(userErrors) > 0 {
		return fmt.Errorf("media creation rejected: %s", formatUserErrors(userErrors))
	}
	return nil
}

const stagedUploadsCreateMutation = `
mutation stagedUploadsCreate($input: [StagedUploadInput!]!) {
  stagedUploadsCreate(input: $input) {
    stagedTargets {
      url
      resourceUrl
      parameters { name value }
    }
    userErrors { field message }
  }
}`

// StagedUploadTarget is an upload slot: POST the binary to URL with the
// given form parameters, then reference ResourceURL in a media creation.
type StagedUploadTarget struct {
	URL         string
	ResourceURL string
	Parameters  map[string]string
}

// CreateStagedUpload requests an upload slot for one image binary.
func (c *Client) CreateStagedUpload(ctx context.Context, filename, mimeType string, size int) (*StagedUploadTarget, error) {
	variables := map[string]interface{}{
		"input": []interface{}{
			map[string]interface{}{
				"filename":   filename,
				"mimeType":   mimeType,
				"fileSize":   strconv.Itoa(size),
				"resource":   "IMAGE",
				"httpMethod": "POST",
			},
		},
	}

	data, err := c.execute(ctx, stagedUploadsCreateMutation, variables)
	if err != nil {
		return nil, err
	}
	if userErrors := decodeUserErrors(data, "stagedUploadsCreate", "userErrors"); len(userErrors) > 0 {
		return nil, fmt.Errorf("staged upload rejected: %s", formatUserErrors(userErrors))
	}

	targets, ok := dig(data, "stagedUploadsCreate", "stagedTargets").([]interface{})
	if !ok || len(targets) == 0 {
		return nil, fmt.Errorf("staged upload returned no targets")
	}
	targetMap, ok := targets[0].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("staged upload returned malformed target")
	}

	target := &StagedUploadTarget{
		Parameters: map[string]string{},
	}
	target.URL, _ = targetMap["url"].(string)
	target.ResourceURL, _ = targetMap["resourceUrl"].(string)
	if params, ok := targetMap["parameters"].([]interface{}); ok {
		for _, p := range params {
			if pm, ok := p.(map[string]interface{}); ok {
				name, _ := pm["name"].(string)
				value, _ := pm["value"].(string)
				target.Parameters[name] = value
			}
		}
	}
	return target, nil
}

// UploadStagedImage sends the binary to the staged upload slot as a
// multipart form.
func (c *Client) UploadStagedImage(ctx context.Context, target *StagedUploadTarget, filename string, data []byte) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, value := range target.Parameters {
		if err := writer.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to write form field: %w", err)
		}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, &body)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("staged upload returned %d", resp.StatusCode)
	}
	return nil
}

const collectionAddProductsMutation = `
mutation collectionAddProductsV2($id: ID!, $productIds: [ID!]!) {
  collectionAddProductsV2(id: $id, productIds: $productIds) {
    userErrors { field message }
  }
}`

// AddProductsToCollection assigns a run's created products to one collection.
func (c *Client) AddProductsToCollection(ctx context.Context, collectionID string, productIDs []string) error {
	variables := map[string]interface{}{
		"id":         collectionID,
		"productIds": productIDs,
	}

	data, err := c.execute(ctx, collectionAddProductsMutation, variables)
	if err != nil {
		return err
	}
	if userErrors := decodeUserErrors(data, "collectionAddProductsV2", "userErrors"); len(userErrors) > 0 {
		return fmt.Errorf("collection assignment rejected: %s", formatUserErrors(userErrors))
	}
	return nil
}

// Collection is a catalog collection summary.
type Collection struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Handle string `json:"handle"`
}

const collectionsQuery = `
query collections($first: Int!) {
  collections(first: $first) {
    nodes { id title handle }
  }
}`

// ListCollections fetches the shop's collections for assignment pickers.
func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	data, err := c.execute(ctx, collectionsQuery, map[string]interface{}{"first": 100})
	if err != nil {
		return nil, err
	}

	var collections []Collection
	if nodes, ok := dig(data, "collections", "nodes").([]interface{}); ok {
		for _, node := range nodes {
			if m, ok := node.(map[string]interface{}); ok {
				col := Collection{}
				col.ID, _ = m["id"].(string)
				col.Title, _ = m["title"].(string)
				col.Handle, _ = m["handle"].(string)
				collections = append(collections, col)
			}
		}
	}
	return collections, nil
}

// CatalogProduct is a catalog product summary returned by search.
type CatalogProduct struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Handle string `json:"handle"`
	Status string `json:"status"`
}

const productsQuery = `
query products($first: Int!, $query: String) {
  products(first: $first, query: $query) {
    nodes { id title handle status }
  }
}`

// SearchProducts lists or searches the shop's existing products.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]CatalogProduct, error) {
	variables := map[string]interface{}{"first": 20}
	if query != "" {
		variables["query"] = query
	}

	data, err := c.execute(ctx, productsQuery, variables)
	if err != nil {
		return nil, err
	}

	var products []CatalogProduct
	if nodes, ok := dig(data, "products", "nodes").([]interface{}); ok {
		for _, node := range nodes {
			if m, ok := node.(map[string]interface{}); ok {
				p := CatalogProduct{}
				p.ID, _ = m["id"].(string)
				p.Title, _ = m["title"].(string)
				p.Handle, _ = m["handle"].(string)
				p.Status, _ = m["status"].(string)
				products = append(products, p)
			}
		}
	}
	return products, nil
}
