// Package keybuilder centralizes the construction of cache keys so every
// layer agrees on the naming scheme.
package keybuilder

import (
	"fmt"

	"github.com/google/uuid"
)

const notificationPrefix = "notification"

// NotificationKey builds the cache key for a notification.
func NotificationKey(id uuid.UUID) string {
	return fmt.Sprintf("%s:%s", notificationPrefix, id)
}
