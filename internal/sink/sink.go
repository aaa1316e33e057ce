// Package sink defines where a retrieved secret goes once the read path has
// produced it. Implementations belong to the embedding environment.
package sink

// Channel selects one of the publication targets of a SecretSink
type Channel int

const (
	// ChannelEnv is an environment-style variable named by the caller
	ChannelEnv Channel = iota
	// ChannelOutput is the generic named output slot
	ChannelOutput
)

// PasswordOutput is the output slot name the password is published under
const PasswordOutput = "password"

func (c Channel) String() string {
	switch c {
	case ChannelEnv:
		return "env"
	case ChannelOutput:
		return "output"
	default:
		return "unknown"
	}
}

// SecretSink receives a secret value. Mask must be called before the value is
// published or written anywhere else.
type SecretSink interface {
	// Mask registers value so later log output hides it
	Mask(value string) error

	// Publish makes value available under name on the given channel
	Publish(ch Channel, name, value string) error
}
