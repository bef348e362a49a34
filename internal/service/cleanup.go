package service

import (
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Cleaner периодически удаляет устаревшие временные файлы.
// Аннотированные изображения не трогает: на них ссылаются записи в БД.
type Cleaner struct {
	dir      string
	ttl      time.Duration
	interval time.Duration
	logger   *logrus.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewCleaner создает новый очиститель временной папки
func NewCleaner(dir string, ttl, interval time.Duration, logger *logrus.Logger) *Cleaner {
	return &Cleaner{
		dir:      dir,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает фоновую очистку
func (c *Cleaner) Start() {
	go func() {
		defer close(c.done)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.Sweep()
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop останавливает фоновую очистку и дожидается ее завершения
func (c *Cleaner) Stop() {
	close(c.stop)
	<-c.done
}

// Sweep удаляет из временной папки файлы старше ttl
func (c *Cleaner) Sweep() {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warnf("Не удалось прочитать временную папку %s: %v", c.dir, err)
		}
		return
	}

	deadline := time.Now().Add(-c.ttl)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(deadline) {
			path := filepath.Join(c.dir, entry.Name())
			if err := os.Remove(path); err != nil {
				c.logger.Warnf("Не удалось удалить временный файл %s: %v", path, err)
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		c.logger.Infof("Очистка временной папки: удалено %d файлов", removed)
	}
}
