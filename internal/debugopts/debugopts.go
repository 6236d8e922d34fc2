// Package debugopts parses the debug topics accepted by the --debug flag and
// the COVERAGE_DEBUG environment variable, and hands out per-topic loggers.
package debugopts

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// Topics understood by the tool. Anything else is a usage error.
const (
	TopicConfig  = "config"
	TopicDataIO  = "dataio"
	TopicTrace   = "trace"
	TopicSys     = "sys"
	TopicProcess = "process"
)

var validTopics = map[string]struct{}{
	TopicConfig:  {},
	TopicDataIO:  {},
	TopicTrace:   {},
	TopicSys:     {},
	TopicProcess: {},
}

// Options is a set of enabled debug topics.
type Options map[string]struct{}

// Parse validates comma separated topic specs, such as the value of the
// --debug flag. Multiple specs are merged.
func Parse(specs ...string) (Options, error) {
	opts := make(Options)
	for _, spec := range specs {
		for _, topic := range strings.Split(spec, ",") {
			topic = strings.TrimSpace(topic)
			if topic == "" {
				continue
			}
			if _, ok := validTopics[topic]; !ok {
				return nil, fmt.Errorf("unknown debug topic %q, valid topics are %s", topic, strings.Join(ValidTopics(), ", "))
			}
			opts[topic] = struct{}{}
		}
	}
	return opts, nil
}

// Enabled reports whether the given topic was requested.
func (o Options) Enabled(topic string) bool {
	_, ok := o[topic]
	return ok
}

// Logger returns a debug-level logger tagged with the topic when the topic is
// enabled, and a discarding logger otherwise. The returned logger emits
// regardless of the default logger's verbosity.
func (o Options) Logger(topic string) *slog.Logger {
	if !o.Enabled(topic) {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})).With("topic", topic)
}

// String renders the enabled topics, sorted, for display.
func (o Options) String() string {
	topics := make([]string, 0, len(o))
	for topic := range o {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return strings.Join(topics, ",")
}

// ValidTopics lists all known topics, sorted.
func ValidTopics() []string {
	topics := make([]string, 0, len(validTopics))
	for topic := range validTopics {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}
