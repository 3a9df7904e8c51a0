package bot

import "fmt"

// Startup stages.
const (
	StageModules  = "modules"
	StagePlugins  = "plugins"
	StageSession  = "session"
	StageGateway  = "gateway"
	StageDatabase = "database"
)

// StartupError reports a failure that prevents the bot from serving.
type StartupError struct {
	Stage string
	Err   error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("startup failed at %s: %v", e.Stage, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}
