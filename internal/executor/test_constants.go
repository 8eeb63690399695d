//go:build unit

package executor

const (
	osWindows = "windows"

	echoCommand = "echo"
	shCommand   = "sh"
	shArgC      = "-c"
)
