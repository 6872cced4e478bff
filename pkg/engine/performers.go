package engine

import (
	"time"

	"github.com/flowlineio/flowline/pkg/models"
)

// Env carries the per-call environment the engine needs beyond the workflow
// itself: the clock and account directory state. Group membership and user
// status are read once per resolution; a task keeps the performers it was
// assigned even if the directory changes while it is active.
type Env struct {
	Now    time.Time
	Groups map[string][]string     // group id -> member user ids
	Users  map[string]*models.User // user id -> user
}

// ResolvePerformers expands raw performer specifications into a deduplicated,
// order-preserving list of user ids. Unset FIELD references contribute
// nothing; inactive and unknown users are dropped. An empty result is a valid
// outcome that skips the task.
func ResolvePerformers(
	raw []*models.RawPerformerTemplate,
	values models.FieldValues,
	starterID string,
	env Env,
) []string {
	seen := make(map[string]bool)

	var out []string

	add := func(userID string) {
		if userID == "" || seen[userID] {
			return
		}

		if u, ok := env.Users[userID]; !ok || !u.IsActive() {
			return
		}

		seen[userID] = true
		out = append(out, userID)
	}

	for _, rp := range raw {
		switch rp.Type {
		case models.PerformerTypeUser:
			add(rp.UserID)
		case models.PerformerTypeWorkflowStarter:
			add(starterID)
		case models.PerformerTypeGroup:
			for _, member := range env.Groups[rp.GroupID] {
				add(member)
			}
		case models.PerformerTypeField:
			value, ok := values[rp.Field]
			if !ok || value.IsEmpty() {
				continue
			}

			if value.Type == models.FieldTypeGroup {
				for _, member := range env.Groups[value.Value] {
					add(member)
				}

				continue
			}

			add(value.Value)
		}
	}

	return out
}
