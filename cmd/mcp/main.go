package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"github.com/casfs/casfs/internal/communication"
	"github.com/casfs/casfs/internal/log_service"
)

type MCPConfig struct {
	ServerAddress string `yaml:"server_address"`
	Owner         string `yaml:"owner"`
}

type serverClient struct {
	address string
	owner   string
	comm    communication.Communicator
}

func LoadConfig(path string) (*MCPConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		defaultConfig := &MCPConfig{
			ServerAddress: "localhost:8080",
			Owner:         "mcp",
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		data, err := yaml.Marshal(defaultConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal default config: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
		return defaultConfig, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	config := &MCPConfig{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return config, nil
}

func (c *serverClient) send(ctx context.Context, msgType string, payload any) (*communication.Response, error) {
	msg := communication.Message{
		From:    "mcp-server",
		Type:    msgType,
		Payload: payload,
	}
	return c.comm.Send(ctx, c.address, msg)
}

func toolResult(resp *communication.Response, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send request: %v", err)), nil
	}
	if resp.Code != communication.CodeOK {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", resp.Code, string(resp.Body))), nil
	}
	if len(resp.Body) == 0 {
		return mcp.NewToolResultText("OK"), nil
	}
	return mcp.NewToolResultText(string(resp.Body)), nil
}

func addTools(s *server.MCPServer, client *serverClient) {
	writeFileTool := mcp.NewTool("write_file",
		mcp.WithDescription("Write a file at the given path, creating or overwriting it"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute or relative path of the file"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("File content as text"),
		),
	)
	s.AddTool(writeFileTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		content, err := request.RequireString("content")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResult(client.send(ctx, communication.MessageTypeWriteFile, communication.WriteFileRequest{
			Owner:   client.owner,
			Path:    path,
			Content: []byte(content),
		}))
	})

	readFileTool := mcp.NewTool("read_file",
		mcp.WithDescription("Read the content of a file"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the file to read"),
		),
	)
	s.AddTool(readFileTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		resp, err := client.send(ctx, communication.MessageTypeReadFile, communication.ReadFileRequest{
			Owner: client.owner,
			Path:  path,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to send request: %v", err)), nil
		}
		if resp.Code != communication.CodeOK {
			return mcp.NewToolResultError(fmt.Sprintf("%s: %s", resp.Code, string(resp.Body))), nil
		}
		var fileResp communication.ReadFileResponse
		if err := json.Unmarshal(resp.Body, &fileResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid response: %v", err)), nil
		}
		return mcp.NewToolResultText(string(fileResp.Content)), nil
	})

	listDirectoryTool := mcp.NewTool("list_directory",
		mcp.WithDescription("List the entries of a directory"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the directory to list"),
		),
		mcp.WithString("cursor",
			mcp.Description("Pagination cursor returned by a previous listing"),
		),
	)
	s.AddTool(listDirectoryTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		cursor := request.GetString("cursor", "")
		return toolResult(client.send(ctx, communication.MessageTypeListDirectory, communication.ListDirectoryRequest{
			Owner:  client.owner,
			Path:   path,
			Limit:  100,
			Cursor: cursor,
		}))
	})

	makeDirectoryTool := mcp.NewTool("make_directory",
		mcp.WithDescription("Create a directory, including missing parent directories"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the directory to create"),
		),
	)
	s.AddTool(makeDirectoryTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResult(client.send(ctx, communication.MessageTypeCreateDirectory, communication.CreateDirectoryRequest{
			Owner: client.owner,
			Path:  path,
		}))
	})

	deleteTool := mcp.NewTool("delete",
		mcp.WithDescription("Delete a file, or a directory when recursive is set"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to delete"),
		),
		mcp.WithBoolean("recursive",
			mcp.Description("Delete a directory and everything under it"),
		),
	)
	s.AddTool(deleteTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if request.GetBool("recursive", false) {
			return toolResult(client.send(ctx, communication.MessageTypeDeleteDirectory, communication.DeleteDirectoryRequest{
				Owner:     client.owner,
				Path:      path,
				Recursive: true,
			}))
		}
		return toolResult(client.send(ctx, communication.MessageTypeDeleteFile, communication.DeleteFileRequest{
			Owner: client.owner,
			Path:  path,
		}))
	})

	statTool := mcp.NewTool("stat",
		mcp.WithDescription("Get metadata for a file or directory"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to inspect"),
		),
	)
	s.AddTool(statTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResult(client.send(ctx, communication.MessageTypeGetInfo, communication.GetInfoRequest{
			Owner: client.owner,
			Path:  path,
		}))
	})

	copyTool := mcp.NewTool("copy",
		mcp.WithDescription("Copy a file or directory to a new path"),
		mcp.WithString("source",
			mcp.Required(),
			mcp.Description("Path to copy from"),
		),
		mcp.WithString("dest",
			mcp.Required(),
			mcp.Description("Path to copy to"),
		),
		mcp.WithBoolean("directory",
			mcp.Description("Set when the source is a directory"),
		),
	)
	s.AddTool(copyTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		source, err := request.RequireString("source")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dest, err := request.RequireString("dest")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if request.GetBool("directory", false) {
			return toolResult(client.send(ctx, communication.MessageTypeCopyDirectory, communication.CopyDirectoryRequest{
				Owner:      client.owner,
				SourcePath: source,
				DestPath:   dest,
			}))
		}
		return toolResult(client.send(ctx, communication.MessageTypeCopyFile, communication.CopyFileRequest{
			Owner:      client.owner,
			SourcePath: source,
			DestPath:   dest,
		}))
	})

	moveTool := mcp.NewTool("move",
		mcp.WithDescription("Move a file or directory to a new path"),
		mcp.WithString("source",
			mcp.Required(),
			mcp.Description("Path to move from"),
		),
		mcp.WithString("dest",
			mcp.Required(),
			mcp.Description("Path to move to"),
		),
		mcp.WithBoolean("directory",
			mcp.Description("Set when the source is a directory"),
		),
	)
	s.AddTool(moveTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		source, err := request.RequireString("source")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dest, err := request.RequireString("dest")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if request.GetBool("directory", false) {
			return toolResult(client.send(ctx, communication.MessageTypeMoveDirectory, communication.MoveDirectoryRequest{
				Owner:      client.owner,
				SourcePath: source,
				DestPath:   dest,
			}))
		}
		return toolResult(client.send(ctx, communication.MessageTypeMoveFile, communication.MoveFileRequest{
			Owner:      client.owner,
			SourcePath: source,
			DestPath:   dest,
		}))
	})
}

func main() {
	configPath := os.Getenv("CASFS_MCP_CONFIG")
	if configPath == "" {
		configPath = "./config/mcp.yaml"
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ls := log_service.NewStdoutLogService(log_service.WarnLevel)
	client := &serverClient{
		address: config.ServerAddress,
		owner:   config.Owner,
		comm:    communication.NewHTTPCommunicator("", ls),
	}

	s := server.NewMCPServer(
		"casfs",
		"1.0.0",
		server.WithToolCapabilities(false),
	)
	addTools(s, client)

	if err := server.ServeStdio(s); err != nil {
		fmt.Printf("Server error: %v\n", err)
	}
}
