package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/cakemarket-backend/internal/config"
	"github.com/shinyyama/cakemarket-backend/internal/db"
	"github.com/shinyyama/cakemarket-backend/internal/model"
	"github.com/shinyyama/cakemarket-backend/internal/storage"
	"gorm.io/gorm"
)

const placeholderPrefix = "https://picsum.photos/"

// seed-images copies placeholder listing photos into the storage bucket and
// points each listing at its hosted copy.
func main() {
	if err := run(); err != nil {
		log.Fatalf("seed-images failed: %v", err)
	}
	log.Println("seed-images completed successfully")
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.StorageBucket == "" {
		return fmt.Errorf("STORAGE_BUCKET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	images, err := storage.NewImageStore(ctx, cfg.StorageBucket, cfg.GoogleCredentialsFile)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer images.Close()

	force := strings.EqualFold(os.Getenv("FORCE_SEED"), "true")
	return rehostListings(ctx, gdb, images, force)
}

func rehostListings(ctx context.Context, gdb *gorm.DB, images *storage.ImageStore, force bool) error {
	var listings []model.Listing
	q := gdb.WithContext(ctx).Model(&model.Listing{})
	if !force {
		q = q.Where("image_url LIKE ?", placeholderPrefix+"%")
	}
	if err := q.Find(&listings).Error; err != nil {
		return err
	}
	log.Printf("target listings=%d (force=%v)", len(listings), force)

	for _, l := range listings {
		src := l.ImageURL
		if !strings.HasPrefix(src, placeholderPrefix) {
			src = fmt.Sprintf("%sseed/listing-%d/800/600", placeholderPrefix, l.ID)
		}
		data, contentType, err := fetchPlaceholder(ctx, src)
		if err != nil {
			log.Printf("[listing %d] fetch failed: %v", l.ID, err)
			continue
		}
		publicURL, err := images.Upload(ctx, contentType, data)
		if err != nil {
			log.Printf("[listing %d] upload failed: %v", l.ID, err)
			continue
		}
		if err := gdb.WithContext(ctx).Model(&model.Listing{}).Where("id = ?", l.ID).Update("image_url", publicURL).Error; err != nil {
			log.Printf("[listing %d] db update failed: %v", l.ID, err)
			continue
		}
		log.Printf("[listing %d] %s", l.ID, publicURL)
	}
	return nil
}

func fetchPlaceholder(ctx context.Context, src string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("placeholder status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, storage.MaxImageBytes+1))
	if err != nil {
		return nil, "", err
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}
