package lecture

import "time"

// SetNow pins the service clock until the returned func is called.
func SetNow(t time.Time) (restore func()) {
	nowFunc = func() time.Time { return t }
	return func() { nowFunc = time.Now }
}
