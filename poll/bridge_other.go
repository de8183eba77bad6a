//go:build !unix

package poll

// DefaultBridge returns NoopBridge, there is no readiness primitive on this
// platform.
func DefaultBridge() Bridge {
	return NoopBridge{}
}
