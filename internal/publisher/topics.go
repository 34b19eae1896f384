package publisher

import (
	"strings"

	"github.com/hazz-dev/sitepulse/internal/checker"
)

// Segment is the fixed topic segment placed between the source tag and the
// target name.
const Segment = "websites"

// Leaf topic names.
const (
	LeafResult        = "result"
	LeafLastPublished = "last_published"
)

// BaseTopic returns root/source/websites/name/scheme with the scheme lower-cased.
func BaseTopic(root, source, name string, scheme checker.Scheme) string {
	return strings.Join([]string{
		root,
		source,
		Segment,
		name,
		strings.ToLower(scheme.String()),
	}, "/")
}

// ResultTopic carries "true" or "false".
func ResultTopic(root, source, name string, scheme checker.Scheme) string {
	return BaseTopic(root, source, name, scheme) + "/" + LeafResult
}

// LastPublishedTopic carries the local time of the most recent publish.
func LastPublishedTopic(root, source, name string, scheme checker.Scheme) string {
	return BaseTopic(root, source, name, scheme) + "/" + LeafLastPublished
}
