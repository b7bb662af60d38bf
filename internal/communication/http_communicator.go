package communication

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sync"
	"time"

	"github.com/casfs/casfs/internal/log_service"
)

type HTTPCommunicator struct {
	listenAddress string
	httpServer    *http.Server
	handler       MessageHandler
	ls            log_service.LogService
	clientLock    sync.RWMutex
	clients       map[string]*http.Client
	payloadTypes  map[string]reflect.Type
}

func NewHTTPCommunicator(listenAddress string, ls log_service.LogService) *HTTPCommunicator {
	c := &HTTPCommunicator{
		listenAddress: listenAddress,
		ls:            ls,
		clients:       make(map[string]*http.Client),
		payloadTypes:  make(map[string]reflect.Type),
	}

	// Register default payload types
	c.RegisterPayloadType(MessageTypeCreateDirectory, CreateDirectoryRequest{})
	c.RegisterPayloadType(MessageTypeDeleteDirectory, DeleteDirectoryRequest{})
	c.RegisterPayloadType(MessageTypeCopyDirectory, CopyDirectoryRequest{})
	c.RegisterPayloadType(MessageTypeMoveDirectory, MoveDirectoryRequest{})
	c.RegisterPayloadType(MessageTypeListDirectory, ListDirectoryRequest{})
	c.RegisterPayloadType(MessageTypeWriteFile, WriteFileRequest{})
	c.RegisterPayloadType(MessageTypeReadFile, ReadFileRequest{})
	c.RegisterPayloadType(MessageTypeDeleteFile, DeleteFileRequest{})
	c.RegisterPayloadType(MessageTypeCopyFile, CopyFileRequest{})
	c.RegisterPayloadType(MessageTypeMoveFile, MoveFileRequest{})
	c.RegisterPayloadType(MessageTypeGetInfo, GetInfoRequest{})
	c.RegisterPayloadType(MessageTypeGetWorkingDir, GetWorkingDirRequest{})
	c.RegisterPayloadType(MessageTypeSetWorkingDir, SetWorkingDirRequest{})
	c.RegisterPayloadType(MessageTypeSweep, SweepRequest{})

	return c
}

func (c *HTTPCommunicator) RegisterPayloadType(messageType string, payload any) {
	c.payloadTypes[messageType] = reflect.TypeOf(payload)
}

func (c *HTTPCommunicator) Address() string {
	return c.listenAddress
}

func (c *HTTPCommunicator) Start(handler MessageHandler) error {
	c.ls.Info(log_service.LogEvent{
		Message:  "Starting HTTP communicator",
		Metadata: map[string]any{"address": c.listenAddress},
	})

	c.handler = handler

	mux := http.NewServeMux()
	mux.HandleFunc("/message", c.handleHTTPMessage)

	c.httpServer = &http.Server{
		Addr:    c.listenAddress,
		Handler: mux,
	}

	go func() {
		if err := c.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.ls.Error(log_service.LogEvent{
				Message:  "HTTP server error",
				Metadata: map[string]any{"address": c.listenAddress, "error": err.Error()},
			})
		}
	}()

	return nil
}

func (c *HTTPCommunicator) Stop() error {
	c.ls.Info(log_service.LogEvent{
		Message:  "Stopping HTTP communicator",
		Metadata: map[string]any{"address": c.listenAddress},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.httpServer.Shutdown(ctx); err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to stop HTTP server",
			Metadata: map[string]any{"address": c.listenAddress, "error": err.Error()},
		})
		return ErrServerStopFailed
	}

	return nil
}

func mapFromHTTPCode(code int) SandCode {
	switch code {
	case http.StatusOK:
		return CodeOK
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusServiceUnavailable:
		return CodeUnavailable
	default:
		return CodeInternal
	}
}

func mapToHTTPCode(code SandCode) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (c *HTTPCommunicator) Send(ctx context.Context, to string, msg Message) (*Response, error) {
	c.ls.Debug(log_service.LogEvent{
		Message:  "Sending HTTP message",
		Metadata: map[string]any{"to": to, "type": msg.Type},
	})

	c.clientLock.RLock()
	client, ok := c.clients[to]
	c.clientLock.RUnlock()

	if !ok {
		client = &http.Client{
			Timeout: 30 * time.Second,
		}
		c.clientLock.Lock()
		c.clients[to] = client
		c.clientLock.Unlock()
	}

	msg.From = c.listenAddress
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return nil, ErrMessageMarshalFailed
	}

	url := fmt.Sprintf("http://%s/message", to)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, ErrHTTPRequestCreateFailed
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		c.ls.Error(log_service.LogEvent{
			Message:  "Failed to send HTTP request",
			Metadata: map[string]any{"to": to, "type": msg.Type, "error": err.Error()},
		})
		return nil, ErrHTTPRequestSendFailed
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrHTTPResponseReadFailed
	}

	headers := map[string]string{}
	for key, values := range resp.Header {
		headers[key] = values[0]
	}

	return &Response{
		Code:    mapFromHTTPCode(resp.StatusCode),
		Body:    respBody,
		Headers: headers,
	}, nil
}

func (c *HTTPCommunicator) handleHTTPMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, ErrHTTPBodyReadFailed.Error(), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// First unmarshal to get message type
	var rawMsg struct {
		From    string          `json:"From"`
		Type    string          `json:"Type"`
		Payload json.RawMessage `json:"Payload"`
	}
	if err := json.Unmarshal(body, &rawMsg); err != nil {
		http.Error(w, ErrInvalidJSON.Error(), http.StatusBadRequest)
		return
	}

	if rawMsg.From == "" || rawMsg.Type == "" {
		http.Error(w, ErrMissingRequiredFields.Error(), http.StatusBadRequest)
		return
	}

	c.ls.Debug(log_service.LogEvent{
		Message:  "Received HTTP message",
		Metadata: map[string]any{"from": rawMsg.From, "type": rawMsg.Type, "remoteAddr": r.RemoteAddr},
	})

	msg := Message{
		From: rawMsg.From,
		Type: rawMsg.Type,
	}

	// Deserialize payload based on registered message type
	if payloadType, exists := c.payloadTypes[rawMsg.Type]; exists {
		if len(rawMsg.Payload) > 0 {
			payloadPtr := reflect.New(payloadType).Interface()
			if err := json.Unmarshal(rawMsg.Payload, payloadPtr); err != nil {
				http.Error(w, fmt.Sprintf("Invalid payload for message type %s: %v", rawMsg.Type, err), http.StatusBadRequest)
				return
			}
			msg.Payload = reflect.ValueOf(payloadPtr).Elem().Interface()
		} else {
			msg.Payload = reflect.Zero(payloadType).Interface()
		}
	} else {
		c.ls.Warn(log_service.LogEvent{
			Message:  "No payload type registered for message type",
			Metadata: map[string]any{"from": rawMsg.From, "type": rawMsg.Type},
		})
	}

	if c.handler == nil {
		http.Error(w, ErrHandlerNotSet.Error(), http.StatusInternalServerError)
		return
	}

	resp, err := c.handler(msg)
	if err != nil {
		http.Error(w, fmt.Sprintf("Handler error: %v", err), http.StatusInternalServerError)
		return
	}

	if resp != nil {
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(mapToHTTPCode(resp.Code))
		if len(resp.Body) > 0 {
			w.Write(resp.Body)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}
