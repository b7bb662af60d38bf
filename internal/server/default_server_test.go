package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/casfs/casfs/internal/blob_service"
	"github.com/casfs/casfs/internal/blob_store"
	"github.com/casfs/casfs/internal/communication"
	"github.com/casfs/casfs/internal/file_service"
	"github.com/casfs/casfs/internal/log_service"
	"github.com/casfs/casfs/internal/metadata_service"
	"github.com/casfs/casfs/internal/orphan_collector"
	"github.com/casfs/casfs/internal/transaction_manager"
)

type stubCommunicator struct {
	started bool
	stopped bool
}

func (c *stubCommunicator) Start(handler communication.MessageHandler) error {
	c.started = true
	return nil
}

func (c *stubCommunicator) Stop() error {
	c.stopped = true
	return nil
}

func (c *stubCommunicator) Send(ctx context.Context, to string, msg communication.Message) (*communication.Response, error) {
	return &communication.Response{Code: communication.CodeOK}, nil
}

func (c *stubCommunicator) Address() string {
	return "stub"
}

func (c *stubCommunicator) RegisterPayloadType(messageType string, payload any) {}

func newTestServer() *DefaultServer {
	ms := metadata_service.NewInMemoryMetadataService()
	bs := blob_service.NewInMemoryBlobService()
	store := blob_store.NewInMemoryBlobStore()
	tm := transaction_manager.NewSimpleTransactionManager()
	ls := log_service.NewStdoutLogService(log_service.ErrorLevel)

	fs := file_service.NewDefaultFileService(ms, bs, store, tm, ls)
	oc := orphan_collector.NewDefaultOrphanCollector(bs, store, ls)
	return NewDefaultServer(&stubCommunicator{}, fs, oc, ls)
}

func send(t *testing.T, s *DefaultServer, msgType string, payload any) *communication.Response {
	t.Helper()

	resp, err := s.handleMessage(communication.Message{
		From:    "test",
		Type:    msgType,
		Payload: payload,
	})
	if err != nil {
		t.Fatalf("handleMessage(%s) error = %v", msgType, err)
	}
	return resp
}

func TestDefaultServer_WriteReadDelete(t *testing.T) {
	s := newTestServer()

	resp := send(t, s, communication.MessageTypeWriteFile, communication.WriteFileRequest{
		Owner:    "owner1",
		Path:     "/hello.txt",
		Content:  []byte("hello world"),
		MimeType: "text/plain",
	})
	if resp.Code != communication.CodeOK {
		t.Fatalf("write response = %s: %s", resp.Code, resp.Body)
	}

	var node communication.NodeInfo
	if err := json.Unmarshal(resp.Body, &node); err != nil {
		t.Fatalf("unmarshaling write response: %v", err)
	}
	if node.Path != "/hello.txt" || node.Size != 11 {
		t.Errorf("write response node = %+v, want /hello.txt size 11", node)
	}

	resp = send(t, s, communication.MessageTypeReadFile, communication.ReadFileRequest{
		Owner: "owner1",
		Path:  "/hello.txt",
	})
	if resp.Code != communication.CodeOK {
		t.Fatalf("read response = %s: %s", resp.Code, resp.Body)
	}
	var fileResp communication.ReadFileResponse
	if err := json.Unmarshal(resp.Body, &fileResp); err != nil {
		t.Fatalf("unmarshaling read response: %v", err)
	}
	if string(fileResp.Content) != "hello world" {
		t.Errorf("read content = %q, want hello world", fileResp.Content)
	}
	if fileResp.MimeType != "text/plain" {
		t.Errorf("read mime type = %q, want text/plain", fileResp.MimeType)
	}

	resp = send(t, s, communication.MessageTypeDeleteFile, communication.DeleteFileRequest{
		Owner: "owner1",
		Path:  "/hello.txt",
	})
	if resp.Code != communication.CodeOK {
		t.Fatalf("delete response = %s: %s", resp.Code, resp.Body)
	}

	resp = send(t, s, communication.MessageTypeReadFile, communication.ReadFileRequest{
		Owner: "owner1",
		Path:  "/hello.txt",
	})
	if resp.Code != communication.CodeNotFound {
		t.Errorf("read after delete = %s, want NOT_FOUND", resp.Code)
	}
}

func TestDefaultServer_DirectoryLifecycle(t *testing.T) {
	s := newTestServer()

	resp := send(t, s, communication.MessageTypeCreateDirectory, communication.CreateDirectoryRequest{
		Owner: "owner1",
		Path:  "/docs/notes",
	})
	if resp.Code != communication.CodeOK {
		t.Fatalf("mkdir response = %s: %s", resp.Code, resp.Body)
	}

	// Creating it again conflicts.
	resp = send(t, s, communication.MessageTypeCreateDirectory, communication.CreateDirectoryRequest{
		Owner: "owner1",
		Path:  "/docs/notes",
	})
	if resp.Code != communication.CodeConflict {
		t.Errorf("duplicate mkdir = %s, want CONFLICT", resp.Code)
	}

	send(t, s, communication.MessageTypeWriteFile, communication.WriteFileRequest{
		Owner:   "owner1",
		Path:    "/docs/notes/a.txt",
		Content: []byte("a"),
	})

	resp = send(t, s, communication.MessageTypeListDirectory, communication.ListDirectoryRequest{
		Owner: "owner1",
		Path:  "/docs/notes",
		Limit: 10,
	})
	if resp.Code != communication.CodeOK {
		t.Fatalf("listdir response = %s: %s", resp.Code, resp.Body)
	}
	var listing communication.ListDirectoryResponse
	if err := json.Unmarshal(resp.Body, &listing); err != nil {
		t.Fatalf("unmarshaling listing: %v", err)
	}
	if len(listing.Items) != 1 || listing.Items[0].Name != "a.txt" {
		t.Errorf("listing = %+v, want one entry a.txt", listing.Items)
	}

	resp = send(t, s, communication.MessageTypeDeleteDirectory, communication.DeleteDirectoryRequest{
		Owner:     "owner1",
		Path:      "/docs",
		Recursive: true,
	})
	if resp.Code != communication.CodeOK {
		t.Fatalf("rmdir response = %s: %s", resp.Code, resp.Body)
	}

	resp = send(t, s, communication.MessageTypeGetInfo, communication.GetInfoRequest{
		Owner: "owner1",
		Path:  "/docs",
	})
	if resp.Code != communication.CodeNotFound {
		t.Errorf("stat after rmdir = %s, want NOT_FOUND", resp.Code)
	}
}

func TestDefaultServer_ErrorCodeMapping(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name    string
		msgType string
		payload any
		want    communication.SandCode
	}{
		{
			name:    "invalid path is bad request",
			msgType: communication.MessageTypeGetInfo,
			payload: communication.GetInfoRequest{Owner: "owner1", Path: "/../x"},
			want:    communication.CodeBadRequest,
		},
		{
			name:    "missing entry is not found",
			msgType: communication.MessageTypeReadFile,
			payload: communication.ReadFileRequest{Owner: "owner1", Path: "/nope.txt"},
			want:    communication.CodeNotFound,
		},
		{
			name:    "unregistered type is bad request",
			msgType: "unknown",
			payload: nil,
			want:    communication.CodeBadRequest,
		},
		{
			name:    "wrong payload type is bad request",
			msgType: communication.MessageTypeReadFile,
			payload: communication.GetInfoRequest{Owner: "owner1", Path: "/x"},
			want:    communication.CodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := send(t, s, tt.msgType, tt.payload)
			if resp.Code != tt.want {
				t.Errorf("handleMessage() Code = %s, want %s", resp.Code, tt.want)
			}
		})
	}
}

func TestDefaultServer_WorkingDirMessages(t *testing.T) {
	s := newTestServer()

	send(t, s, communication.MessageTypeCreateDirectory, communication.CreateDirectoryRequest{
		Owner: "owner1",
		Path:  "/work",
	})

	resp := send(t, s, communication.MessageTypeSetWorkingDir, communication.SetWorkingDirRequest{
		Owner: "owner1",
		Path:  "/work",
	})
	if resp.Code != communication.CodeOK {
		t.Fatalf("setcwd response = %s: %s", resp.Code, resp.Body)
	}

	resp = send(t, s, communication.MessageTypeGetWorkingDir, communication.GetWorkingDirRequest{
		Owner: "owner1",
	})
	if resp.Code != communication.CodeOK {
		t.Fatalf("getcwd response = %s: %s", resp.Code, resp.Body)
	}
	var wd communication.WorkingDirResponse
	if err := json.Unmarshal(resp.Body, &wd); err != nil {
		t.Fatalf("unmarshaling getcwd response: %v", err)
	}
	if wd.Path != "/work" {
		t.Errorf("working dir = %q, want /work", wd.Path)
	}
}

func TestDefaultServer_SweepMessage(t *testing.T) {
	s := newTestServer()

	// Write then delete leaves one orphaned blob.
	send(t, s, communication.MessageTypeWriteFile, communication.WriteFileRequest{
		Owner:   "owner1",
		Path:    "/victim.txt",
		Content: []byte("orphan me"),
	})
	send(t, s, communication.MessageTypeDeleteFile, communication.DeleteFileRequest{
		Owner: "owner1",
		Path:  "/victim.txt",
	})

	resp := send(t, s, communication.MessageTypeSweep, communication.SweepRequest{})
	if resp.Code != communication.CodeOK {
		t.Fatalf("sweep response = %s: %s", resp.Code, resp.Body)
	}
	var sweep communication.SweepResponse
	if err := json.Unmarshal(resp.Body, &sweep); err != nil {
		t.Fatalf("unmarshaling sweep response: %v", err)
	}
	if sweep.Removed != 1 {
		t.Errorf("sweep removed = %d, want 1", sweep.Removed)
	}
}
