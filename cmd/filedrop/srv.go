package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"filedrop/internal/blobstore"
	"filedrop/internal/config"
	"filedrop/internal/server"
	"filedrop/internal/store"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the filedrop API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}

			logger := slog.Default().With("component", "server")

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}

			logger.Info("opening database", "path", cfg.DBPath)
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			blobs, err := openBlobStore(cfg, logger)
			if err != nil {
				return err
			}

			srv := server.New(addr, st, blobs, cfg, logger)
			srv.SetVersion(version)
			return srv.ListenAndServe()
		},
	}
}

func openBlobStore(cfg *config.Config, logger *slog.Logger) (blobstore.BlobStore, error) {
	if cfg.S3.Bucket != "" {
		logger.Info("using s3 blob store", "bucket", cfg.S3.Bucket, "region", cfg.S3.Region)
		return blobstore.NewS3(blobstore.S3Options{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Endpoint:        cfg.S3.Endpoint,
			KeyPrefix:       cfg.S3.KeyPrefix,
		})
	}

	logger.Info("using local blob store", "dir", cfg.BlobDir)
	return blobstore.NewLocal(cfg.BlobDir)
}
