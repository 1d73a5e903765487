package optimizer

import (
	"fmt"
	"strings"

	"importer/internal/models"
)

const defaultTitleInstruction = `You are an expert e-commerce SEO specialist. Rewrite this product title for maximum search visibility and click-through rates.

Requirements:
- Keep under 70 characters
- Include primary keywords
- Make it compelling and click-worthy
- Maintain brand appeal

Return ONLY the optimized title, no explanations.`

const defaultDescriptionInstruction = `You are an expert e-commerce copywriter. Rewrite this product description to be SEO-optimized and persuasive.

Requirements:
- Use clean HTML formatting (paragraphs, short bullet lists)
- Include primary keywords naturally
- Highlight key benefits and features
- Include a call-to-action

Return ONLY the optimized description HTML, no explanations.`

const defaultTagsInstruction = `You are an expert e-commerce SEO specialist. Generate search-relevant tags for this product.

Requirements:
- Between 5 and 10 tags
- Lowercase, no hashtags
- Mix broad category terms with specific attributes

Return ONLY the comma-separated list of tags, no explanations.`

const defaultProductTypeInstruction = `You are an e-commerce catalog specialist. Classify this product into a single category name suitable as its product type.

Requirements:
- One short category name, no punctuation
- Use established retail taxonomy terms

Return ONLY the product type, no explanations.`

const defaultAltTextInstruction = `You are an accessibility and SEO specialist. Write concise, descriptive alt text for this product image.

Requirements:
- Under 125 characters
- Describe what is shown, naming the product
- No "image of" or "picture of" phrasing

Return ONLY the alt text, no explanations.`

// Image enhancement prompts differ by position: the first image is the
// canonical hero shot and must keep its framing, later images get lifestyle
// treatment.
const heroImageInstruction = `Enhance this product photo for an e-commerce listing. Clean up the background, fix lighting and sharpness. Do not change the product itself, its background setting, or the overall context beyond cleanup.`

const lifestyleImageInstruction = `Reimagine this product photo as a lifestyle shot for an e-commerce listing. Place the product in an appealing, realistic usage setting while keeping the product itself completely unchanged.`

func buildTitlePrompt(product models.ScrapedProduct, template string, negativeWords []string) string {
	instruction := defaultTitleInstruction
	if strings.TrimSpace(template) != "" {
		instruction = template
	}
	return instruction + productContext(product) + negativeWordClause(negativeWords)
}

func buildDescriptionPrompt(product models.ScrapedProduct, template string, negativeWords []string) string {
	instruction := defaultDescriptionInstruction
	if strings.TrimSpace(template) != "" {
		instruction = template
	}
	return instruction + productContext(product) + negativeWordClause(negativeWords)
}

func buildTagsPrompt(product models.ScrapedProduct, negativeWords []string) string {
	return defaultTagsInstruction + productContext(product) + negativeWordClause(negativeWords)
}

func buildProductTypePrompt(product models.ScrapedProduct, negativeWords []string) string {
	return defaultProductTypeInstruction + productContext(product) + negativeWordClause(negativeWords)
}

func buildAltTextPrompt(product models.ScrapedProduct, image models.ProductImage, negativeWords []string) string {
	prompt := fmt.Sprintf("%s\n\nProduct: %s\nVendor: %s\nImage position: %d\nCurrent alt text: %s",
		defaultAltTextInstruction, product.Title, product.Vendor, image.Position, image.Alt)
	return prompt + negativeWordClause(negativeWords)
}

func buildImagePrompt(position int) string {
	if position <= 1 {
		return heroImageInstruction
	}
	return lifestyleImageInstruction
}

func productContext(product models.ScrapedProduct) string {
	var b strings.Builder
	b.WriteString("\n\nProduct context:\n")
	fmt.Fprintf(&b, "Title: %s\n", product.Title)
	if product.Vendor != "" {
		fmt.Fprintf(&b, "Vendor: %s\n", product.Vendor)
	}
	if product.ProductType != "" {
		fmt.Fprintf(&b, "Type: %s\n", product.ProductType)
	}
	if len(product.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(product.Tags, ", "))
	}
	if product.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", truncate(product.Description, 1500))
	}
	return b.String()
}

func negativeWordClause(words []string) string {
	if len(words) == 0 {
		return ""
	}
	return fmt.Sprintf("\n\nNever use any of these words in your output: %s.", strings.Join(words, ", "))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
