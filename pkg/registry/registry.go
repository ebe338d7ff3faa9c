package registry

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateInstanceID returns a unique id for one running copy of a service.
func GenerateInstanceID(serviceName string) string {
	return fmt.Sprintf("%s-%s", serviceName, uuid.NewString())
}
