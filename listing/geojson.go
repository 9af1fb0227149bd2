package listing

import (
	geojson "github.com/paulmach/go.geojson"
)

// FeatureCollection renders both collections as GeoJSON points for the map UI.
// Every feature carries the report type and its listing fields as properties.
func (s Snapshot) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, t := range ReportTypes {
		for _, r := range s.Collection(t).Items {
			// GeoJSON positions are lng, lat.
			f := geojson.NewPointFeature([]float64{r.Lng, r.Lat})
			f.ID = r.ID
			f.SetProperty("type", t.String())
			f.SetProperty("breed", r.Breed)
			f.SetProperty("location", r.Location)
			f.SetProperty("remarks", r.Remarks)
			if r.ImageURL != "" {
				f.SetProperty("image_url", r.ImageURL)
			}
			if !r.Reward.IsZero() {
				f.SetProperty("reward", r.Reward.String())
			}
			fc.AddFeature(f)
		}
	}
	return fc
}
