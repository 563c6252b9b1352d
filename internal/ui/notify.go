package ui

import (
	"os/exec"
	"runtime"
	"strings"
)

var appleScriptEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Notify sends an OS-level notification. Fails silently if unavailable.
func Notify(title, message string) {
	if runtime.GOOS != "darwin" {
		return
	}
	script := `display notification "` + appleScriptEscaper.Replace(message) +
		`" with title "` + appleScriptEscaper.Replace(title) + `"`
	_ = exec.Command("osascript", "-e", script).Run()
}
