package viewer

import (
	"net/http"

	"github.com/JakeFAU/appprofiler/internal/sanitize"
	"github.com/JakeFAU/appprofiler/internal/upload"
)

const (
	documentHead = "<!doctype html>\n<html>\n  <head>\n    <title>App Profiler</title>\n  </head>\n  <body>\n"
	documentTail = "\n  </body>\n</html>\n"
)

// Render sanitizes fragment and wraps it in the minimal document shell.
func Render(fragment string) *upload.Response {
	doc := documentHead + sanitize.HTML(fragment) + documentTail
	return &upload.Response{
		Status:  http.StatusOK,
		Headers: map[string]string{"Content-Type": "text/html"},
		Body:    [][]byte{[]byte(doc)},
	}
}
