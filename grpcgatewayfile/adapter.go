// Package grpcgatewayfile bridges entityserve's transport-neutral Response
// onto a grpc-gateway server-streaming RPC, the way the teacher's gateway
// bridged raw file downloads: request headers arrive as gRPC metadata
// (collected by WithIncomingHeaderMatcher), the resolved response headers and
// status leave the same way (applied by WithForwardResponseOption), and the
// body streams as a sequence of httpbody.HttpBody chunks.
package grpcgatewayfile

import (
	"context"
	"fmt"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/pkg/errors"
	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// requestHeaders lists the conditional/range request headers forwarded from
// HTTP into gRPC metadata, keyed by runtime.MetadataPrefix.
var requestHeaders = []string{
	"Range",
	"If-Range",
	"If-Match",
	"If-None-Match",
	"If-Unmodified-Since",
	"If-Modified-Since",
	"Accept-Encoding",
}

// responseHeaders lists the response headers entityserve.Serve and
// entityserve.StreamingBody produce, forwarded from gRPC metadata back onto
// the HTTP response by WithForwardResponseOption. Order doesn't matter; the
// metadata key decides presence.
var responseHeaders = []string{
	"Accept-Ranges",
	"Allow",
	"Content-Encoding",
	"Content-Length",
	"Content-Range",
	"Content-Type",
	"Date",
	"ETag",
	"Last-Modified",
	"Vary",
}

// metadataCode is the out-of-band metadata key carrying the HTTP status code,
// since a grpc-gateway server-streaming handler has no direct way to set one.
const metadataCode = "code"

// WithIncomingHeaderMatcher forwards the conditional-request and negotiation
// headers entityserve.Serve/StreamingBody read, plus grpc-gateway's defaults.
func WithIncomingHeaderMatcher() runtime.ServeMuxOption {
	return runtime.WithIncomingHeaderMatcher(func(key string) (string, bool) {
		key = textproto.CanonicalMIMEHeaderKey(key)
		for _, h := range requestHeaders {
			if key == h {
				return runtime.MetadataPrefix + key, true
			}
		}
		return runtime.DefaultHeaderMatcher(key)
	})
}

// WithForwardResponseOption applies the response headers and status code
// entityserve produced, smuggled through gRPC server metadata by Serve and
// ServeStreaming (serve.go), onto the real HTTP response.
func WithForwardResponseOption() runtime.ServeMuxOption {
	return runtime.WithForwardResponseOption(func(ctx context.Context, w http.ResponseWriter, message proto.Message) error {
		if message != nil {
			return nil
		}
		md, ok := runtime.ServerMetadataFromContext(ctx)
		if !ok {
			return errors.New("grpcgatewayfile: no server metadata in context")
		}
		for _, header := range responseHeaders {
			if v := pick(md.HeaderMD, header); v != "" {
				w.Header().Set(header, v)
			}
		}
		if codeStr := pick(md.HeaderMD, metadataCode); codeStr != "" {
			code, err := strconv.Atoi(codeStr)
			if err != nil {
				return errors.Wrap(err, "grpcgatewayfile: malformed status code metadata")
			}
			w.WriteHeader(code)
		}
		return nil
	})
}

// pick returns the first value of key in md. gRPC metadata keys are
// lowercase; request headers forwarded by WithIncomingHeaderMatcher carry
// runtime.MetadataPrefix, while headers sent by Serve/ServeStreaming don't.
func pick(md map[string][]string, key string) string {
	for _, k := range []string{runtime.MetadataPrefix + key, key} {
		if vs := md[strings.ToLower(k)]; len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

// WithHTTPBodyMarshaler installs the google.api.HttpBody marshaler so a
// server-streaming RPC returning HttpBody messages renders as a raw byte
// stream instead of JSON-encoded envelopes.
func WithHTTPBodyMarshaler() runtime.ServeMuxOption {
	return runtime.WithMarshalerOption("*", &runtime.HTTPBodyMarshaler{
		Marshaler: &runtime.JSONPb{
			MarshalOptions:   protojson.MarshalOptions{EmitUnpopulated: true},
			UnmarshalOptions: protojson.UnmarshalOptions{DiscardUnknown: true},
		},
	})
}

// DownloadServer is the server-streaming half of a grpc-gateway download RPC:
// a grpc.ServerStream that sends body chunks as httpbody.HttpBody messages.
type DownloadServer interface {
	grpc.ServerStream
	Send(*httpbody.HttpBody) error
}

// downloadServerWriter adapts a DownloadServer into an io.Writer, splitting
// writes into chunkSize-sized httpbody.HttpBody messages.
type downloadServerWriter struct {
	server      DownloadServer
	contentType string
	chunkSize   int
}

func newDownloadServerWriter(server DownloadServer, contentType string, chunkSize int) *downloadServerWriter {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &downloadServerWriter{server: server, contentType: contentType, chunkSize: chunkSize}
}

func (w *downloadServerWriter) Write(data []byte) (int, error) {
	n := 0
	for len(data) > 0 {
		wn := len(data)
		if wn > w.chunkSize {
			wn = w.chunkSize
		}
		if err := w.server.Send(&httpbody.HttpBody{ContentType: w.contentType, Data: data[:wn]}); err != nil {
			return n, fmt.Errorf("grpcgatewayfile: send chunk: %w", err)
		}
		data = data[wn:]
		n += wn
	}
	return n, nil
}

const defaultChunkSize = 32 * 1024
