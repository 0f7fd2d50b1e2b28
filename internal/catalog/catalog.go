package catalog

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"eadshop_back_end/internal/models"

	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyCatalog = errors.New("catalogue vide")
	currencyPattern = regexp.MustCompile(`^[a-z]{3}$`)
)

// Catalog est la source de vérité des prix, en lecture seule après chargement
type Catalog struct {
	items []models.CatalogItem
	byID  map[string]int
}

type fileFormat struct {
	Products []models.CatalogItem `yaml:"products"`
}

// New valide et fige une liste de produits
func New(items []models.CatalogItem) (*Catalog, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		items: make([]models.CatalogItem, 0, len(items)),
		byID:  make(map[string]int, len(items)),
	}

	for _, item := range items {
		if item.ID == "" {
			return nil, fmt.Errorf("produit sans identifiant (%q)", item.Name)
		}
		if _, dup := c.byID[item.ID]; dup {
			return nil, fmt.Errorf("identifiant produit en double: %s", item.ID)
		}
		if item.UnitPriceMinorUnits < 0 {
			return nil, fmt.Errorf("prix négatif pour %s", item.ID)
		}
		if !currencyPattern.MatchString(item.Currency) {
			return nil, fmt.Errorf("devise invalide pour %s: %q", item.ID, item.Currency)
		}
		options, err := copyOptions(item)
		if err != nil {
			return nil, err
		}
		item.Options = options

		c.byID[item.ID] = len(c.items)
		c.items = append(c.items, item)
	}

	return c, nil
}

// LoadFile lit un catalogue YAML ({products: [...]})
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lecture catalogue %s: %w", path, err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalogue %s illisible: %w", path, err)
	}

	return New(f.Products)
}

// Default reprend les produits de la boutique
func Default() *Catalog {
	sizes := []string{"S", "M", "L", "XL"}
	c, err := New([]models.CatalogItem{
		{ID: "prod_canotta", Name: "Canotta", UnitPriceMinorUnits: 2500, Currency: "eur", Options: map[string][]string{"taglia": sizes}},
		{ID: "prod_tshirt_logo", Name: "T-Shirt Logo", UnitPriceMinorUnits: 2500, Currency: "eur", Options: map[string][]string{"taglia": sizes}},
		{ID: "prod_felpa_vintage", Name: "Felpa Vintage", UnitPriceMinorUnits: 5500, Currency: "eur", Options: map[string][]string{"taglia": sizes}},
		{ID: "prod_cappello_snapback", Name: "Cappello Snapback", UnitPriceMinorUnits: 1800, Currency: "eur"},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup retourne une copie du produit
func (c *Catalog) Lookup(id string) (models.CatalogItem, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return models.CatalogItem{}, false
	}
	return c.items[idx], true
}

// Items retourne les produits dans l'ordre de chargement
func (c *Catalog) Items() []models.CatalogItem {
	out := make([]models.CatalogItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Len() int {
	return len(c.items)
}

func copyOptions(item models.CatalogItem) (map[string][]string, error) {
	if len(item.Options) == 0 {
		return nil, nil
	}
	out := make(map[string][]string, len(item.Options))
	for name, values := range item.Options {
		if name == "" || len(values) == 0 {
			return nil, fmt.Errorf("option invalide pour %s: %q", item.ID, name)
		}
		seen := make(map[string]bool, len(values))
		for _, v := range values {
			if v == "" || seen[v] {
				return nil, fmt.Errorf("valeur d'option invalide pour %s/%s: %q", item.ID, name, v)
			}
			seen[v] = true
		}
		out[name] = append([]string(nil), values...)
	}
	return out, nil
}
