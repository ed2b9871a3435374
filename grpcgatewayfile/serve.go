package grpcgatewayfile

import (
	"io"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"google.golang.org/grpc/metadata"

	"github.com/black-06/entityserve"
)

// incomingRequest rebuilds a *http.Request carrying only the headers
// entityserve.Serve reads, out of the metadata WithIncomingHeaderMatcher
// collected from the original HTTP request.
func incomingRequest(method string, incoming metadata.MD) *http.Request {
	r := &http.Request{Method: method, Header: make(http.Header, len(requestHeaders))}
	for _, h := range requestHeaders {
		if v := pick(incoming, h); v != "" {
			r.Header.Set(h, v)
		}
	}
	return r
}

// httpMethod recovers the HTTP method of the original request. grpc-gateway
// doesn't forward it through metadata by default, so callers that need HEAD
// semantics must pass it explicitly; Serve below defaults to GET.
func httpMethod(incoming metadata.MD) string {
	if v := pick(incoming, "X-Http-Method"); v != "" {
		return v
	}
	return http.MethodGet
}

// Serve answers server's RPC as an entityserve.Serve download: it rebuilds
// the conditional/range request from incoming gRPC metadata, evaluates e
// against it, sends the resolved headers and status code as outgoing
// metadata for WithForwardResponseOption to apply, and streams the resulting
// body as a sequence of httpbody.HttpBody chunks.
func Serve(server DownloadServer, e entityserve.Entity, chunkSize int) error {
	ctx := server.Context()
	incoming, _ := metadata.FromIncomingContext(ctx)

	req := incomingRequest(httpMethod(incoming), incoming)
	res := entityserve.Serve(e, req)

	outgoing := make(metadata.MD)
	for key, values := range res.Header {
		for _, v := range values {
			outgoing.Append(key, v)
		}
	}
	outgoing.Set(metadataCode, strconv.Itoa(res.StatusCode))

	if err := server.SendHeader(outgoing); err != nil {
		return errors.Wrap(err, "grpcgatewayfile: send header")
	}
	if res.Body == nil || res.Body == http.NoBody {
		return nil
	}

	contentType := res.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w := newDownloadServerWriter(server, contentType, chunkSize)
	if _, err := io.Copy(w, res.Body); err != nil {
		return errors.Wrap(err, "grpcgatewayfile: stream body")
	}
	return nil
}

// ServeStreaming answers server's RPC as an entityserve.StreamingBody
// download, driving fill against the BodyWriter entityserve hands back.
// fill is expected to write the representation's bytes and return any error
// that should abort the stream; ServeStreaming closes the writer itself.
func ServeStreaming(server DownloadServer, chunkSize, gzipLevel int, fill func(w *entityserve.BodyWriter) error) error {
	ctx := server.Context()
	incoming, _ := metadata.FromIncomingContext(ctx)
	req := incomingRequest(httpMethod(incoming), incoming)

	res, writer := entityserve.StreamingBody(req).ChunkSize(chunkSize).GzipLevel(gzipLevel).Build()

	outgoing := make(metadata.MD)
	for key, values := range res.Header {
		for _, v := range values {
			outgoing.Append(key, v)
		}
	}
	outgoing.Set(metadataCode, strconv.Itoa(http.StatusOK))
	if err := server.SendHeader(outgoing); err != nil {
		return errors.Wrap(err, "grpcgatewayfile: send header")
	}

	if writer != nil {
		fillErr := make(chan error, 1)
		go func() {
			err := fill(writer)
			if err != nil {
				writer.Abort(err)
				fillErr <- err
				return
			}
			fillErr <- writer.Close()
		}()

		contentType := res.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w := newDownloadServerWriter(server, contentType, chunkSize)
		_, copyErr := io.Copy(w, res.Body)
		if fErr := <-fillErr; fErr != nil {
			return errors.Wrap(fErr, "grpcgatewayfile: fill streaming body")
		}
		if copyErr != nil {
			return errors.Wrap(copyErr, "grpcgatewayfile: stream body")
		}
	}
	return nil
}
