package config

// GetAuthSkipperPaths returns a list of paths to skip authentication for
func GetAuthSkipperPaths() []string {
	// Read-only board views stay public for shop-floor displays
	return []string{"/api/routing", "/api/tracking/:lotId"}
}
