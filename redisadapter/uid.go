package redisadapter

import "crypto/rand"

// uidAlphabet is sized so that a 6-character UID has far more than 10^9
// possible values (62^6 ≈ 5.7×10^10), matching the collision budget a fleet
// of peer processes needs.
const uidAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const uidLength = 6

// newUID returns a short random string used to tag every broadcast a single
// process publishes, so the process can recognize and drop its own echoes.
// It is generated once per Factory and shared by every Adapter it produces.
func newUID() string {
	return randomString(uidLength)
}

func randomString(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic("redisadapter: failed to read random bytes: " + err.Error())
	}

	out := make([]byte, n)
	for i, b := range buf {
		out[i] = uidAlphabet[int(b)%len(uidAlphabet)]
	}
	return string(out)
}
