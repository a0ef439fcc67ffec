// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package services

import "regexp"

// Fixed vocabularies used to derive a structured query pack from vision
// labels, logos, and OCR text, and to steer search-result scoring.
// Matching against these lists is always lowercase substring matching.

// productTypeKeywords maps a canonical product type to the label
// keywords that imply it. Iteration is over productTypeOrder so that
// the first (most specific) bucket wins ties.
var productTypeKeywords = map[string][]string{
	"footwear":    {"shoe", "sneaker", "footwear", "boot", "sandal", "heel", "loafer", "slipper"},
	"clothing":    {"shirt", "t-shirt", "dress", "jacket", "coat", "hoodie", "sweater", "jeans", "pants", "trousers", "shorts", "skirt", "top", "blouse", "suit", "activewear", "sportswear", "outerwear", "clothing", "apparel"},
	"accessory":   {"bag", "handbag", "backpack", "watch", "sunglasses", "glasses", "hat", "cap", "belt", "scarf", "wallet", "jewelry", "necklace", "bracelet", "ring", "earring"},
	"electronics": {"phone", "smartphone", "laptop", "headphone", "earbuds", "camera", "tablet", "speaker", "monitor", "keyboard", "mouse", "console"},
	"beauty":      {"lipstick", "makeup", "cosmetic", "perfume", "skincare", "lotion", "serum", "foundation", "mascara"},
	"furniture":   {"chair", "sofa", "couch", "table", "desk", "lamp", "shelf", "bed", "mattress", "rug"},
}

// productTypeOrder fixes the precedence between type buckets.
var productTypeOrder = []string{"footwear", "clothing", "accessory", "electronics", "beauty", "furniture"}

// colorKeywords are the colors a query pack may carry, most common
// first. At most three survive into the pack.
var colorKeywords = []string{
	"black", "white", "red", "blue", "green", "yellow", "orange", "purple",
	"pink", "brown", "gray", "grey", "beige", "navy", "teal", "maroon",
	"olive", "cream", "tan", "gold", "silver",
}

// attributeKeywords describe style, material, fit, and feature terms
// worth carrying into search variants. At most five survive.
var attributeKeywords = []string{
	// style
	"casual", "formal", "vintage", "retro", "modern", "classic", "sporty",
	"elegant", "minimalist", "oversized", "slim",
	// material
	"leather", "denim", "cotton", "wool", "silk", "suede", "canvas",
	"mesh", "knit", "fleece",
	// fit and features
	"high-top", "low-top", "high top", "low top", "slip-on", "lace-up",
	"waterproof", "wireless", "running", "training", "hiking",
}

// knownBrands are the brand names recognized from logo annotations and
// OCR text. Kept lowercase.
var knownBrands = []string{
	"nike", "adidas", "zara", "h&m", "uniqlo", "levi", "gap",
	"apple", "samsung", "sony", "canon", "gucci", "prada",
	"north face", "patagonia", "columbia", "vans", "converse",
}

// brandSites maps a recognized brand to its on-site search URL. The
// {query} placeholder is substituted with the URL-escaped query.
var brandSites = map[string]string{
	"nike":    "https://www.nike.com/w?q={query}",
	"adidas":  "https://www.adidas.com/us/search?q={query}",
	"zara":    "https://www.zara.com/us/en/search?searchTerm={query}",
	"h&m":     "https://www2.hm.com/en_us/search-results.html?q={query}",
	"hm":      "https://www2.hm.com/en_us/search-results.html?q={query}",
	"uniqlo":  "https://www.uniqlo.com/us/en/search?q={query}",
	"levi's":  "https://www.levi.com/US/en_US/search/{query}",
	"levis":   "https://www.levi.com/US/en_US/search/{query}",
	"gap":     "https://www.gap.com/browse/search.do?searchText={query}",
	"apple":   "https://www.apple.com/us/search/{query}",
	"samsung": "https://www.samsung.com/us/search/searchMain/?listType=g&searchTerm={query}",
	"sephora": "https://www.sephora.com/search?keyword={query}",
	"ikea":    "https://www.ikea.com/us/en/search/?q={query}",
	"target":  "https://www.target.com/s?searchTerm={query}",
	"walmart": "https://www.walmart.com/search?q={query}",
}

// trustedRetailers are multi-brand storefronts whose product pages are
// considered reliable even without an exact brand token in the domain.
var trustedRetailers = []string{"amazon", "walmart", "target", "ebay", "bestbuy"}

// modelPatterns pick alphanumeric model designations out of OCR text,
// e.g. "AF 270", "W2986", "270-554".
var modelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[A-Z]{2,}\s*\d{2,}`),
	regexp.MustCompile(`\b[A-Z][0-9]{3,}\b`),
	regexp.MustCompile(`\b\d{3,}-\d{3,}\b`),
}

// commonModels are well-known product line names matched as lowercase
// substrings of the user's note.
var commonModels = []string{
	"air force 1", "air max", "jordan", "ultraboost", "stan smith",
	"chuck taylor", "old skool", "classic", "original",
}

// badURLFragments mark listing, search, and account pages; their
// presence disqualifies a URL as a product detail page.
var badURLFragments = []string{
	"/search", "/category", "/collections", "/c/", "/browse", "/shop/all",
	"/s?", "?q=", "?searchterm", "/w?", "/results", "/find", "/catalog",
	"/sale", "/new-arrivals", "/login", "/cart", "/account", "/help",
	"/stores", "/blog", "/news",
}

// productURLHints mark the path shapes retailers use for single-product
// pages.
var productURLHints = []string{"/t/", "/product/", "/p/", "/dp/", "/gp/product/", "/item/"}

// productNouns are title words that weakly indicate a single product
// rather than a landing page.
var productNouns = []string{
	"shoe", "sneaker", "shirt", "jacket", "dress", "bag", "watch",
	"phone", "laptop", "headphone",
}
