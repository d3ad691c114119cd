package testsupport

// TagItem builds one submitted item in the shape tag reporters send.
func TagItem(name string, lat, lng, accuracy float64, timestampMillis int64) map[string]any {
	return map[string]any{
		"name":          name,
		"batteryStatus": 1,
		"location": map[string]any{
			"latitude":           lat,
			"longitude":          lng,
			"horizontalAccuracy": accuracy,
			"timeStamp":          timestampMillis,
			"isInaccurate":       false,
		},
	}
}
