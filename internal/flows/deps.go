package flows

// Deps groups flow dependency sets. The root engine builds this once at
// Build time and delegates each request method to the matching flow runner.
type Deps struct {
	Issue    IssueDeps
	Validate ValidateDeps
	Rotate   RotateDeps
	Logout   LogoutDeps
}
