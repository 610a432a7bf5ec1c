package receipt

import _ "embed"

//go:embed static/index.html
var uploadPageHTML []byte

// uploadPage returns the static landing page served before a record exists.
func uploadPage() []byte {
	return uploadPageHTML
}
