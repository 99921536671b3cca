package attendance

import "time"

// SetNowFunc swaps the service clock and returns a func restoring it.
func SetNowFunc(f func() time.Time) (reset func()) {
	nowFunc = f
	return func() { nowFunc = time.Now }
}
