package usecase

import (
	"hash/fnv"
	"strings"

	"ShopScore/internal/domain/models"
)

var platformColors = map[string]string{
	"amazon":   "#FF9900",
	"flipkart": "#0A66C2",
	"ebay":     "#E53238",
	"myntra":   "#F15A24",
	"ajio":     "#0066CC",
}

var palette = []string{"#6C5CE7", "#00B894", "#FDCB6E", "#E17055", "#0984E3", "#D63031", "#00CEC9", "#636E72"}

// PlatformColor returns a platform's brand color. Unknown platforms get a
// stable pick from a fixed palette.
func PlatformColor(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if c, ok := platformColors[key]; ok {
		return c
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return palette[h.Sum32()%uint32(len(palette))]
}

func platformInfos(names []string) []models.PlatformInfo {
	out := make([]models.PlatformInfo, len(names))
	for i, n := range names {
		out[i] = models.PlatformInfo{Name: n, Color: PlatformColor(n)}
	}
	return out
}
