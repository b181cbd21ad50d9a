package kafka

import "github.com/segmentio/kafka-go"

// headerCarrier adapts a plain map to the otel TextMapCarrier shape
// for injecting trace context into outgoing messages.
type headerCarrier map[string]string

func (c headerCarrier) Get(k string) string { return c[k] }
func (c headerCarrier) Set(k, v string)     { c[k] = v }
func (c headerCarrier) Keys() []string {
	ks := make([]string, 0, len(c))
	for k := range c {
		ks = append(ks, k)
	}
	return ks
}

func (c headerCarrier) ToKafka() []kafka.Header {
	hs := make([]kafka.Header, 0, len(c))
	for k, v := range c {
		hs = append(hs, kafka.Header{Key: k, Value: []byte(v)})
	}
	return hs
}

// incomingHeaders is the read-only carrier over a fetched message's
// headers; Set is a no-op on the extract path.
type incomingHeaders []kafka.Header

func (h incomingHeaders) Get(k string) string {
	for _, x := range h {
		if x.Key == k {
			return string(x.Value)
		}
	}
	return ""
}

func (h incomingHeaders) Set(string, string) {}

func (h incomingHeaders) Keys() []string {
	ks := make([]string, 0, len(h))
	for _, x := range h {
		ks = append(ks, x.Key)
	}
	return ks
}
