package queue

import (
	"fmt"
	"time"

	"github.com/tinylib/msgp/msgp"

	"github.com/akashmir/harvesh-app-sub004/types"
)

// Request blobs are persisted as a MessagePack map so the schema can grow
// without breaking rows written by older app versions: unknown keys are
// skipped on decode, missing keys keep their zero value.
const (
	fieldMethod      = "method"
	fieldService     = "service"
	fieldPath        = "path"
	fieldHeaders     = "headers"
	fieldBody        = "body"
	fieldIdemKey     = "idempotency_key"
	fieldSaveOffline = "save_offline"
	fieldTimeout     = "timeout_ns"
	fieldCreatedAt   = "created_at_us"
)

// encodeRequest serializes a request to MessagePack bytes.
//
// Parameters:
//   - req: The request to serialize
//
// Returns:
//   - []byte: Encoded payload
//   - error: Encoding error, if any
func encodeRequest(req types.Request) ([]byte, error) {
	var buf []byte
	buf = msgp.AppendMapHeader(buf, 9)

	buf = msgp.AppendString(buf, fieldMethod)
	buf = msgp.AppendString(buf, req.Method)

	buf = msgp.AppendString(buf, fieldService)
	buf = msgp.AppendString(buf, req.Service)

	buf = msgp.AppendString(buf, fieldPath)
	buf = msgp.AppendString(buf, req.Path)

	buf = msgp.AppendString(buf, fieldHeaders)
	if len(req.Headers) > int(^uint32(0)>>1) {
		return nil, fmt.Errorf("netop: too many headers to encode")
	}
	buf = msgp.AppendMapHeader(buf, uint32(len(req.Headers)))
	for k, v := range req.Headers {
		buf = msgp.AppendString(buf, k)
		buf = msgp.AppendString(buf, v)
	}

	buf = msgp.AppendString(buf, fieldBody)
	buf = msgp.AppendBytes(buf, req.Body)

	buf = msgp.AppendString(buf, fieldIdemKey)
	buf = msgp.AppendString(buf, req.IdempotencyKey)

	buf = msgp.AppendString(buf, fieldSaveOffline)
	buf = msgp.AppendBool(buf, req.SaveForOfflineSync)

	buf = msgp.AppendString(buf, fieldTimeout)
	buf = msgp.AppendInt64(buf, int64(req.Timeout))

	buf = msgp.AppendString(buf, fieldCreatedAt)
	buf = msgp.AppendInt64(buf, req.CreatedAt.UnixMicro())

	return buf, nil
}

// decodeRequest deserializes a request from MessagePack bytes.
//
// Unknown map keys are skipped so newer payload fields do not break
// older readers.
//
// Parameters:
//   - data: The encoded payload
//
// Returns:
//   - types.Request: The decoded request
//   - error: Decoding error if the data is malformed
func decodeRequest(data []byte) (types.Request, error) {
	var req types.Request

	sz, buf, err := msgp.ReadMapHeaderBytes(data)
	if err != nil {
		return req, fmt.Errorf("netop: failed to read payload map header: %w", err)
	}

	for range sz {
		var key string
		key, buf, err = msgp.ReadStringBytes(buf)
		if err != nil {
			return req, fmt.Errorf("netop: failed to read payload key: %w", err)
		}

		switch key {
		case fieldMethod:
			req.Method, buf, err = msgp.ReadStringBytes(buf)
		case fieldService:
			req.Service, buf, err = msgp.ReadStringBytes(buf)
		case fieldPath:
			req.Path, buf, err = msgp.ReadStringBytes(buf)
		case fieldHeaders:
			var hsz uint32
			hsz, buf, err = msgp.ReadMapHeaderBytes(buf)
			if err != nil {
				break
			}
			if hsz > 0 {
				req.Headers = make(map[string]string, hsz)
			}
			for range hsz {
				var hk, hv string
				hk, buf, err = msgp.ReadStringBytes(buf)
				if err != nil {
					break
				}
				hv, buf, err = msgp.ReadStringBytes(buf)
				if err != nil {
					break
				}
				req.Headers[hk] = hv
			}
		case fieldBody:
			req.Body, buf, err = msgp.ReadBytesBytes(buf, nil)
		case fieldIdemKey:
			req.IdempotencyKey, buf, err = msgp.ReadStringBytes(buf)
		case fieldSaveOffline:
			req.SaveForOfflineSync, buf, err = msgp.ReadBoolBytes(buf)
		case fieldTimeout:
			var ns int64
			ns, buf, err = msgp.ReadInt64Bytes(buf)
			req.Timeout = time.Duration(ns)
		case fieldCreatedAt:
			var us int64
			us, buf, err = msgp.ReadInt64Bytes(buf)
			if err == nil && us != 0 {
				req.CreatedAt = time.UnixMicro(us).UTC()
			}
		default:
			buf, err = msgp.Skip(buf)
		}

		if err != nil {
			return req, fmt.Errorf("netop: failed to decode payload field %q: %w", key, err)
		}
	}

	return req, nil
}
