package bitwire

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for serializer events.
var (
	SignalSerializerCreated = capitan.NewSignal("bitwire.serializer.created", "Serializer instantiated")
	SignalMarshalStart      = capitan.NewSignal("bitwire.marshal.start", "Marshal operation beginning")
	SignalMarshalComplete   = capitan.NewSignal("bitwire.marshal.complete", "Marshal operation finished")
	SignalUnmarshalStart    = capitan.NewSignal("bitwire.unmarshal.start", "Unmarshal operation beginning")
	SignalUnmarshalComplete = capitan.NewSignal("bitwire.unmarshal.complete", "Unmarshal operation finished")
)

// Keys for typed event data.
var (
	KeyContentType = capitan.NewStringKey("content_type")
	KeyTypeName    = capitan.NewStringKey("type_name")
	KeySize        = capitan.NewIntKey("size")
	KeyDuration    = capitan.NewDurationKey("duration")
	KeyError       = capitan.NewErrorKey("error")
)

// Event sinks for the emit helpers. Failures are routed to capitan.Error.
var (
	emitEvent   = capitan.Emit
	emitFailure = capitan.Error
)

// emitSerializerCreated emits an event when a serializer is created.
func emitSerializerCreated(ctx context.Context, contentType, typeName string) {
	emitEvent(ctx, SignalSerializerCreated,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
	)
}

// emitMarshalStart emits an event when marshal begins.
func emitMarshalStart(ctx context.Context, contentType, typeName string) {
	emitEvent(ctx, SignalMarshalStart,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
	)
}

// emitMarshalComplete emits an event when marshal finishes.
func emitMarshalComplete(ctx context.Context, contentType, typeName string, size int, duration time.Duration, err error) {
	fields := completeFields(contentType, typeName, size, duration)
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		emitFailure(ctx, SignalMarshalComplete, fields...)
	} else {
		emitEvent(ctx, SignalMarshalComplete, fields...)
	}
}

// emitUnmarshalStart emits an event when unmarshal begins.
func emitUnmarshalStart(ctx context.Context, contentType, typeName string) {
	emitEvent(ctx, SignalUnmarshalStart,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
	)
}

// emitUnmarshalComplete emits an event when unmarshal finishes.
func emitUnmarshalComplete(ctx context.Context, contentType, typeName string, size int, duration time.Duration, err error) {
	fields := completeFields(contentType, typeName, size, duration)
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		emitFailure(ctx, SignalUnmarshalComplete, fields...)
	} else {
		emitEvent(ctx, SignalUnmarshalComplete, fields...)
	}
}

func completeFields(contentType, typeName string, size int, duration time.Duration) []capitan.Field {
	return []capitan.Field{
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
}
