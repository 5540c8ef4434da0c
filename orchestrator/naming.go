package orchestrator

import "strings"

// InterceptedTopic derives the fan-out topic name the orchestrator publishes
// on to deliver topic to node's own subscription, keeping concurrent
// publishers of the same canonical topic from racing to the same subscriber.
// The scheme is injective on (node, topic) and disjoint from any user topic,
// so a launch-configuration tool rewriting subscriber remappings never
// collides with a canonical name.
func InterceptedTopic(node, topic string) string {
	var b strings.Builder
	b.WriteString("/intercepted/")
	b.WriteString(node)
	b.WriteString("/sub")
	b.WriteString(topic)
	return b.String()
}
