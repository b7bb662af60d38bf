package server

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/casfs/casfs/internal/communication"
	"github.com/casfs/casfs/internal/file_service"
	"github.com/casfs/casfs/internal/fserr"
	"github.com/casfs/casfs/internal/log_service"
	"github.com/casfs/casfs/internal/metadata_service"
	"github.com/casfs/casfs/internal/orphan_collector"
)

type DefaultServer struct {
	comm          communication.Communicator
	fs            file_service.FileService
	oc            orphan_collector.OrphanCollector
	ls            log_service.LogService
	ctx           context.Context
	cancel        context.CancelFunc
	typedHandlers map[string]*TypedHandler
}

func NewDefaultServer(comm communication.Communicator, fs file_service.FileService, oc orphan_collector.OrphanCollector, ls log_service.LogService) *DefaultServer {
	ctx, cancel := context.WithCancel(context.Background())
	s := &DefaultServer{
		comm:          comm,
		fs:            fs,
		oc:            oc,
		ls:            ls,
		ctx:           ctx,
		cancel:        cancel,
		typedHandlers: make(map[string]*TypedHandler),
	}
	s.registerHandlers()
	return s
}

func (s *DefaultServer) registerHandlers() {
	s.RegisterTypedHandler(communication.MessageTypeCreateDirectory, reflect.TypeOf(communication.CreateDirectoryRequest{}), s.HandleCreateDirectoryMessage)
	s.RegisterTypedHandler(communication.MessageTypeDeleteDirectory, reflect.TypeOf(communication.DeleteDirectoryRequest{}), s.HandleDeleteDirectoryMessage)
	s.RegisterTypedHandler(communication.MessageTypeCopyDirectory, reflect.TypeOf(communication.CopyDirectoryRequest{}), s.HandleCopyDirectoryMessage)
	s.RegisterTypedHandler(communication.MessageTypeMoveDirectory, reflect.TypeOf(communication.MoveDirectoryRequest{}), s.HandleMoveDirectoryMessage)
	s.RegisterTypedHandler(communication.MessageTypeListDirectory, reflect.TypeOf(communication.ListDirectoryRequest{}), s.HandleListDirectoryMessage)
	s.RegisterTypedHandler(communication.MessageTypeWriteFile, reflect.TypeOf(communication.WriteFileRequest{}), s.HandleWriteFileMessage)
	s.RegisterTypedHandler(communication.MessageTypeReadFile, reflect.TypeOf(communication.ReadFileRequest{}), s.HandleReadFileMessage)
	s.RegisterTypedHandler(communication.MessageTypeDeleteFile, reflect.TypeOf(communication.DeleteFileRequest{}), s.HandleDeleteFileMessage)
	s.RegisterTypedHandler(communication.MessageTypeCopyFile, reflect.TypeOf(communication.CopyFileRequest{}), s.HandleCopyFileMessage)
	s.RegisterTypedHandler(communication.MessageTypeMoveFile, reflect.TypeOf(communication.MoveFileRequest{}), s.HandleMoveFileMessage)
	s.RegisterTypedHandler(communication.MessageTypeGetInfo, reflect.TypeOf(communication.GetInfoRequest{}), s.HandleGetInfoMessage)
	s.RegisterTypedHandler(communication.MessageTypeGetWorkingDir, reflect.TypeOf(communication.GetWorkingDirRequest{}), s.HandleGetWorkingDirMessage)
	s.RegisterTypedHandler(communication.MessageTypeSetWorkingDir, reflect.TypeOf(communication.SetWorkingDirRequest{}), s.HandleSetWorkingDirMessage)
	s.RegisterTypedHandler(communication.MessageTypeSweep, reflect.TypeOf(communication.SweepRequest{}), s.HandleSweepMessage)
}

func (s *DefaultServer) Start() error {
	if err := s.comm.Start(s.handleMessage); err != nil {
		return err
	}
	s.ls.Info(log_service.LogEvent{
		Message:  "Server started",
		Metadata: map[string]any{"address": s.comm.Address()},
	})
	return nil
}

func (s *DefaultServer) Stop() error {
	s.cancel()
	if err := s.comm.Stop(); err != nil {
		return err
	}
	s.ls.Info(log_service.LogEvent{
		Message: "Server stopped",
	})
	return nil
}

func (s *DefaultServer) RegisterTypedHandler(msgType string, payloadType reflect.Type, handler func(msg communication.Message) (*communication.Response, error)) {
	s.typedHandlers[msgType] = &TypedHandler{
		Handler:     handler,
		PayloadType: payloadType,
	}
}

func (s *DefaultServer) handleMessage(msg communication.Message) (*communication.Response, error) {
	if typedHandler, exists := s.typedHandlers[msg.Type]; exists {
		if msg.Payload != nil {
			actualType := reflect.TypeOf(msg.Payload)
			if actualType != typedHandler.PayloadType {
				return &communication.Response{
					Code: communication.CodeBadRequest,
					Body: []byte(fmt.Sprintf("Invalid payload type for %s: expected %s, got %s", msg.Type, typedHandler.PayloadType, actualType)),
				}, nil
			}
		}
		return typedHandler.Handler(msg)
	}

	return &communication.Response{
		Code: communication.CodeBadRequest,
		Body: []byte(fmt.Sprintf("No handler registered for message type: %s", msg.Type)),
	}, nil
}

// errorResponse maps engine error codes onto wire codes.
func errorResponse(err error) *communication.Response {
	code := communication.CodeInternal
	if fsCode, ok := fserr.CodeOf(err); ok {
		switch fsCode {
		case fserr.CodeInvalidPath:
			code = communication.CodeBadRequest
		case fserr.CodeNotFound:
			code = communication.CodeNotFound
		case fserr.CodeAlreadyExists, fserr.CodeConflict, fserr.CodeNotADirectory, fserr.CodeNotAFile:
			code = communication.CodeConflict
		}
	}
	return &communication.Response{
		Code: code,
		Body: []byte(err.Error()),
	}
}

func jsonResponse(body any) (*communication.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return errorResponse(err), nil
	}
	return &communication.Response{
		Code:    communication.CodeOK,
		Body:    data,
		Headers: map[string]string{"Content-Type": "application/json"},
	}, nil
}

func nodeFromEntry(entry *metadata_service.Entry) communication.NodeInfo {
	return communication.NodeInfo{
		ID:        entry.ID,
		Type:      string(entry.Type),
		Path:      entry.Path,
		Name:      entry.Name,
		Size:      entry.Size,
		MimeType:  entry.MimeType,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}
}

func (s *DefaultServer) HandleCreateDirectoryMessage(msg communication.Message) (*communication.Response, error) {
	request := msg.Payload.(communication.CreateDirectoryRequest)

	entry, err := s.fs.CreateDirectory(s.ctx, request.Owner, request.Path)
	if err != nil {
		return errorResponse(err), nil
	}
	return jsonResponse(nodeFromEntry(entry))
}

func (s *DefaultServer) HandleDeleteDirectoryMessage(msg communication.Message) (*communication.Response, error) {
	request := msg.Payload.(communication.DeleteDirectoryRequest)

	if err := s.fs.DeleteDirectory(s.ctx, request.Owner, request.Path, request.Recursive); err != nil {
		return errorResponse(err), nil
	}
	return &communication.Response{Code: communication.CodeOK}, nil
}

func (s *DefaultServer) HandleCopyDirectoryMessage(msg communication.Message) (*communication.Response, error) {
	request := msg.Payload.(communication.CopyDirectoryRequest)

	entry, err := s.fs.CopyDirectory(s.ctx, request.Owner, request.SourcePath, request.DestPath)
	if err != nil {
		return errorResponse(err), nil
	}
	return jsonResponse(nodeFromEntry(entry))
}

func (s *DefaultServer) HandleMoveDirectoryMessage(msg communication.Message) (*communication.Response, error) {
	request := msg.Payload.(communication.MoveDirectoryRequest)

	entry, err := s.fs.MoveDirectory(s.ctx, request.Owner, request.SourcePath, request.DestPath)
	if err != nil {
		return errorResponse(err), nil
	}
	return jsonResponse(nodeFromEntry(entry))
}

func (s *DefaultServer) HandleListDirectoryMessage(msg communication.Message) (*communication.Response, error) {
	request := msg.Payload.(communication.ListDirectoryRequest)

	limit := request.Limit
	if limit <= 0 {
		limit = 100
	}
	page, err := s.fs.ListDirectory(s.ctx, request.Owner, request.Path, limit, request.Cursor)
	if err != nil {
		return errorResponse(err), nil
	}

	response := communication.ListDirectoryResponse{
		Items:      make([]communication.NodeInfo, 0, len(page.Items)),
		NextCursor: page.NextCursor,
	}
	for i := range page.Items {
		response.Items = append(response.Items, nodeFromEntry(&page.Items[i]))
	}
	return jsonResponse(response)
}

func (s *DefaultServer) HandleWriteFileMessage(msg communication.Message) (*communication.Response, error) {
	request := msg.Payload.(communication.WriteFileRequest)

	entry, err := s.fs.WriteFile(s.ctx, request.Owner, request.Path, request.Content, request.MimeType)
	if err != nil {
		return errorResponse(err), nil
	}
	return jsonResponse(nodeFromEntry(entry))
}

func (s *DefaultServer) HandleReadFileMessage(msg communication.Message) (*communication.Response, error) {
	request := msg.Payload.(communication.ReadFileRequest)

	info, err := s.fs.GetInfo(s.ctx, request.Owner, request.Path)
	if err != nil {
		return errorResponse(err), nil
	}
	content, err := s.fs.ReadFile(s.ctx, request.Owner, request.Path)
	if err != nil {
		return errorResponse(err), nil
	}
	return jsonResponse(communication.ReadFileResponse{
		Content:  content,
		MimeType: info.MimeType,
	})
}

func (s *DefaultServer) HandleDeleteFileMessage(msg communication.Message) (*communication.Response, error) {
	request := msg.Payload.(communication.DeleteFileRequest)

	if err := s.fs.DeleteFile(s.ctx, request.Owner, request.Path); err != nil {
		return errorResponse(err), nil
	}
	return &communication.Response{Code: communication.CodeOK}, nil
}

func (s *DefaultServer) HandleCopyFileMessage(msg communication.Message) (*communication.Response, error) {
	request := msg.Payload.(communication.CopyFileRequest)

	entry, err := s.fs.CopyFile(s.ctx, request.Owner, request.SourcePath, request.DestPath)
	if err != nil {
		return errorResponse(err), nil
	}
	return jsonResponse(nodeFromEntry(entry))
}

func (s *DefaultServer) HandleMoveFileMessage(msg communication.Message) (*communication.Response, error) {
	request := msg.Payload.(communication.MoveFileRequest)

	entry, err := s.fs.MoveFile(s.ctx, request.Owner, request.SourcePath, request.DestPath)
	if err != nil {
		return errorResponse(err), nil
	}
	return jsonResponse(nodeFromEntry(entry))
}

func (s *DefaultServer) HandleGetInfoMessage(msg communication.Message) (*communication.Response, error) {
	request := msg.Payload.(communication.GetInfoRequest)

	entry, err := s.fs.GetInfo(s.ctx, request.Owner, request.Path)
	if err != nil {
		return errorResponse(err), nil
	}
	return jsonResponse(nodeFromEntry(entry))
}

func (s *DefaultServer) HandleGetWorkingDirMessage(msg communication.Message) (*communication.Response, error) {
	request := msg.Payload.(communication.GetWorkingDirRequest)

	return jsonResponse(communication.WorkingDirResponse{
		Path: s.fs.GetWorkingDirectory(request.Owner),
	})
}

func (s *DefaultServer) HandleSetWorkingDirMessage(msg communication.Message) (*communication.Response, error) {
	request := msg.Payload.(communication.SetWorkingDirRequest)

	if err := s.fs.SetWorkingDirectory(s.ctx, request.Owner, request.Path); err != nil {
		return errorResponse(err), nil
	}
	return jsonResponse(communication.WorkingDirResponse{
		Path: s.fs.GetWorkingDirectory(request.Owner),
	})
}

func (s *DefaultServer) HandleSweepMessage(msg communication.Message) (*communication.Response, error) {
	request := msg.Payload.(communication.SweepRequest)

	removed, err := s.oc.Sweep(s.ctx, request.Limit)
	if err != nil {
		return errorResponse(err), nil
	}
	return jsonResponse(communication.SweepResponse{Removed: removed})
}
