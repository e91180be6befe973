package peripheral

import (
	"errors"
	"sync"
)

type testCentral string

func (c testCentral) ID() string { return string(c) }

type testRequest struct {
	central Central
	value   []byte
}

func (r *testRequest) Central() Central { return r.central }
func (r *testRequest) Value() []byte    { return r.value }
func (r *testRequest) Offset() int      { return 0 }

func newRequest(central string, value string) *testRequest {
	return &testRequest{central: testCentral(central), value: []byte(value)}
}

type response struct {
	req    WriteRequest
	result ATTResult
}

// recordingTransport accepts or rejects sends according to accept and records traffic.
type recordingTransport struct {
	mu        sync.Mutex
	accept    bool
	sent      [][]byte
	targets   []string
	responses []response
}

func newRecordingTransport(accept bool) *recordingTransport {
	return &recordingTransport{accept: accept}
}

func (t *recordingTransport) SendNotification(value []byte, characteristic string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, value)
	t.targets = append(t.targets, characteristic)
	return t.accept
}

func (t *recordingTransport) Respond(req WriteRequest, result ATTResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responses = append(t.responses, response{req: req, result: result})
}

func (t *recordingTransport) setAccept(accept bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.accept = accept
}

func (t *recordingTransport) sends() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.sent))
	copy(out, t.sent)
	return out
}

func (t *recordingTransport) recordedResponses() []response {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]response, len(t.responses))
	copy(out, t.responses)
	return out
}

var errTestCodec = errors.New("test codec failure")

// testProfile is a raw-bytes profile; Encode accepts []byte and string.
type testProfile struct {
	uuid        string
	properties  Properties
	permissions Permissions
	initial     []byte
}

func (p *testProfile) UUID() string             { return p.uuid }
func (p *testProfile) Name() string             { return "Test " + p.uuid }
func (p *testProfile) Properties() Properties   { return p.properties }
func (p *testProfile) Permissions() Permissions { return p.permissions }
func (p *testProfile) InitialValue() []byte     { return p.initial }
func (p *testProfile) StringValues() []string   { return nil }

func (p *testProfile) Encode(v any) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	default:
		return nil, errTestCodec
	}
}

func (p *testProfile) StringValue(data []byte) (map[string]string, error) {
	return map[string]string{"value": string(data)}, nil
}

func (p *testProfile) DataFromStringValue(values map[string]string) ([]byte, error) {
	v, ok := values["value"]
	if !ok {
		return nil, errTestCodec
	}
	return []byte(v), nil
}
