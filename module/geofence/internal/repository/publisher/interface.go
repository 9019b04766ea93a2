package publisher

import (
	"context"

	"github.com/Runa3012/Volay/module/geofence/domain"
)

// AlertPublisher delivers safety alerts to caregivers. Delivery is attempted
// once; retries are the publisher's concern.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert *domain.SafetyAlert) error
}
