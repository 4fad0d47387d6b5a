package logging

import (
	"time"
)

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Domain fields

func Component(name string) Field {
	return String(componentKey, name)
}

func Node(id string) Field {
	return String("node", id)
}

func Origin(id string) Field {
	return String("origin", id)
}

func Destination(id string) Field {
	return String("destination", id)
}

func RouteID(id int) Field {
	return Int("route_id", id)
}

func Stages(n int) Field {
	return Int("stages", n)
}

func RunID(id string) Field {
	return String("run_id", id)
}

func Backend(name string) Field {
	return String("backend", name)
}

func Count(n int) Field {
	return Int("count", n)
}

func File(p string) Field {
	return String("file", p)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}
