package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casfs/casfs/internal/blob_service"
	"github.com/casfs/casfs/internal/blob_store"
	"github.com/casfs/casfs/internal/communication"
	"github.com/casfs/casfs/internal/file_service"
	"github.com/casfs/casfs/internal/log_service"
	"github.com/casfs/casfs/internal/metadata_service"
	"github.com/casfs/casfs/internal/orphan_collector"
	"github.com/casfs/casfs/internal/server"
	"github.com/casfs/casfs/internal/sqlite_pool"
	"github.com/casfs/casfs/internal/transaction_manager"
)

func buildBlobStore(config *Config) (blob_store.BlobStore, error) {
	switch config.BlobStore.Backend {
	case "inmemory":
		return blob_store.NewInMemoryBlobStore(), nil
	case "localdisc":
		return blob_store.NewLocalDiscBlobStore(config.BlobStore.BaseDir, config.BlobStore.Compress)
	case "cdn":
		return blob_store.NewCDNBlobStore(config.BlobStore.Endpoint, config.BlobStore.StorageZone, config.BlobStore.AccessKey), nil
	default:
		return nil, fmt.Errorf("unknown blob store backend: %s", config.BlobStore.Backend)
	}
}

func buildRepositories(config *Config) (metadata_service.MetadataService, blob_service.BlobService, transaction_manager.TransactionManager, error) {
	switch config.Metadata.Backend {
	case "inmemory":
		ms := metadata_service.NewInMemoryMetadataService()
		bs := blob_service.NewInMemoryBlobService()
		tm := transaction_manager.NewSimpleTransactionManager()
		return ms, bs, tm, nil
	case "sqlite":
		pool, err := sqlite_pool.Open(config.Metadata.SqlitePath, config.Metadata.PoolSize)
		if err != nil {
			return nil, nil, nil, err
		}
		ms, err := metadata_service.NewSqliteMetadataService(pool)
		if err != nil {
			return nil, nil, nil, err
		}
		bs, err := blob_service.NewSqliteBlobService(pool)
		if err != nil {
			return nil, nil, nil, err
		}
		tm := transaction_manager.NewSqliteTransactionManager(pool)
		return ms, bs, tm, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown metadata backend: %s", config.Metadata.Backend)
	}
}

func main() {
	configPath := flag.String("config", "./config/server.yaml", "path to the server config file")
	flag.Parse()

	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ls, err := log_service.NewLocalDiscLogService(config.LogDir, "server", log_service.InfoLevel)
	if err != nil {
		log.Fatalf("Failed to create log service: %v", err)
	}

	ms, bs, tm, err := buildRepositories(config)
	if err != nil {
		log.Fatalf("Failed to build repositories: %v", err)
	}

	store, err := buildBlobStore(config)
	if err != nil {
		log.Fatalf("Failed to build blob store: %v", err)
	}

	fs := file_service.NewDefaultFileService(ms, bs, store, tm, ls)
	oc := orphan_collector.NewDefaultOrphanCollector(bs, store, ls)
	comm := communication.NewHTTPCommunicator(config.ListenAddress, ls)
	srv := server.NewDefaultServer(comm, fs, oc, ls)

	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("Server listening on %s", config.ListenAddress)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	if config.Sweep.IntervalSeconds > 0 {
		go func() {
			ticker := time.NewTicker(time.Duration(config.Sweep.IntervalSeconds) * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-sweepCtx.Done():
					return
				case <-ticker.C:
					if _, err := oc.Sweep(sweepCtx, config.Sweep.Limit); err != nil {
						ls.Error(log_service.LogEvent{
							Component: "sweeper",
							Message:   "scheduled sweep failed",
							Metadata:  map[string]any{"error": err.Error()},
						})
					}
				}
			}
		}()
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("Shutting down...")
	stopSweep()
	if err := srv.Stop(); err != nil {
		log.Printf("Error stopping server: %v", err)
	}
}
