package core

// demoCatalog is inserted into an empty store on first start.
var demoCatalog = []struct {
	name, unit, category, brand string
	stock                       int
}{
	{"Pro Laptop 15", "pcs", "Electronics", "TechCorp", 50},
	{"SmartPhone X", "pcs", "Electronics", "Connect", 150},
	{"AudioMax Headphones", "pcs", "Audio", "SoundWave", 0},
	{"BrewMaster Coffee Machine", "pcs", "Home Appliances", "KitchenPro", 30},
	{"Explorer Backpack", "pcs", "Accessories", "OutdoorGear", 75},
	{"Alpha DSLR Camera", "pcs", "Photography", "LensKing", 25},
	{"TimeKeeper Smartwatch", "pcs", "Wearables", "FitTech", 90},
	{"QuickBoil Kettle", "pcs", "Home Appliances", "KitchenPro", 40},
	{"ErgoComfort Office Chair", "pcs", "Furniture", "OfficeLux", 15},
	{"SoundBox Mini Speaker", "pcs", "Audio", "SoundWave", 0},
	{"GamerPro Mouse", "pcs", "Electronics", "TechCorp", 120},
	{"TypeRight Mechanical Keyboard", "pcs", "Electronics", "TechCorp", 60},
}

// DemoProducts returns the demo catalog with placeholder images.
func DemoProducts() []Product {
	out := make([]Product, len(demoCatalog))
	for i, d := range demoCatalog {
		out[i] = Product{
			Name:     d.name,
			Unit:     d.unit,
			Category: d.category,
			Brand:    d.brand,
			Stock:    d.stock,
			ImageURL: PlaceholderImageURL(d.name),
		}
	}
	return out
}
