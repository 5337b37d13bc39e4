package instance

import "github.com/angelmondragon/shelfplanner/pkg/env"

// GetID returns the process instance identifier used in boot logs. Hosted
// dynos expose DYNO; local runs fall back to "local".
func GetID() string {
	if id := env.Get("SHELFPLANNER_INSTANCE_ID", ""); id != "" {
		return id
	}
	return env.Get("DYNO", "local")
}
