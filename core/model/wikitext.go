package model

import "fmt"

// Link renders an internal wiki link to a record anchor.
func Link(uid, text string) string {
	return fmt.Sprintf("[[#%s|%s]]", uid, text)
}

// ErrorMarker renders an attention-drawing inline error so that bad data is
// visible in the output instead of silently dropped.
func ErrorMarker(msg string) string {
	return fmt.Sprintf(`<span style="color:red;background:yellow"><b>%s</b></span>`, msg)
}
