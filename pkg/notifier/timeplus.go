package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/timeplus-io/proton-go-driver/v2"
	"github.com/timeplus-io/proton-go-driver/v2/lib/driver"

	"github.com/homefront-io/redalert-gateway/pkg/config"
	"github.com/homefront-io/redalert-gateway/pkg/models"
)

// notificationColumns is the schema of the distribution stream. Column names
// follow the notification wire contract.
var notificationColumns = []struct {
	Name string
	Type string
}{
	{Name: "id", Type: "string"},
	{Name: "created_at_s", Type: "int64"},
	{Name: "area", Type: "string"},
	{Name: "district", Type: "string"},
	{Name: "area_id", Type: "string"},
	{Name: "district_id", Type: "string"},
	{Name: "alert", Type: "string"},
	{Name: "description", Type: "string"},
	{Name: "alert_id", Type: "string"},
}

// StreamPublisher publishes notifications by appending them to a Timeplus
// stream. Downstream consumers (push services, voice skills) subscribe to
// the stream independently.
type StreamPublisher struct {
	conn   driver.Conn
	stream string
}

// NewStreamPublisher connects to Timeplus and verifies the connection
func NewStreamPublisher(cfg *config.TimeplusConfig) (*StreamPublisher, error) {
	logrus.Infof("Connecting to Timeplus at %s (workspace: %s)", cfg.Address, cfg.Workspace)

	// Strip protocol if present; the driver speaks the native protocol.
	address := cfg.Address
	address = strings.TrimPrefix(address, "http://")
	address = strings.TrimPrefix(address, "https://")

	host := address
	port := "8464" // Default native port
	if strings.Contains(address, ":") {
		parts := strings.Split(address, ":")
		host = parts[0]
		port = parts[1]
	}
	connectionAddr := host + ":" + port

	conn, err := proton.Open(&proton.Options{
		Addr: []string{connectionAddr},
		Auth: proton.Auth{
			Database: cfg.Workspace,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout:     time.Second * 10,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		Compression: &proton.Compression{
			Method: proton.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open connection to Timeplus: %w", err)
	}

	// Test connection with retries
	var pingErr error
	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pingErr = conn.Ping(ctx)
		cancel()
		if pingErr == nil {
			break
		}
		logrus.Warnf("Failed to ping Timeplus (attempt %d/5): %v", i+1, pingErr)
		time.Sleep(3 * time.Second)
	}
	if pingErr != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping Timeplus after multiple attempts: %w", pingErr)
	}

	logrus.Info("Successfully connected to Timeplus")
	return &StreamPublisher{conn: conn, stream: cfg.Stream}, nil
}

// EnsureStream creates the notification stream if it does not exist
func (p *StreamPublisher) EnsureStream(ctx context.Context) error {
	schemaFields := make([]string, len(notificationColumns))
	for i, col := range notificationColumns {
		schemaFields[i] = fmt.Sprintf("`%s` %s", col.Name, col.Type)
	}

	query := fmt.Sprintf("CREATE STREAM IF NOT EXISTS `%s` (%s)",
		p.stream, strings.Join(schemaFields, ", "))
	if err := p.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create stream '%s': %w", p.stream, err)
	}

	logrus.Infof("Notification stream '%s' is ready", p.stream)
	return nil
}

// Publish implements Publisher by inserting one row into the notification
// stream, with bounded retries on transient failures.
func (p *StreamPublisher) Publish(ctx context.Context, msg models.Notification) error {
	values := []string{
		quote(msg.ID),
		fmt.Sprintf("%d", msg.CreatedAtS),
		quote(msg.Area),
		quote(msg.District),
		quote(msg.AreaID),
		quote(msg.DistrictID),
		quote(msg.Alert),
		quote(msg.Description),
		quote(msg.AlertID),
	}

	columns := make([]string, len(notificationColumns))
	for i, col := range notificationColumns {
		columns[i] = col.Name
	}

	query := fmt.Sprintf("INSERT INTO `%s` (%s) VALUES (%s)",
		p.stream, strings.Join(columns, ", "), strings.Join(values, ", "))

	maxRetries := 3
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			logrus.Warnf("Retrying insert into stream '%s' (attempt %d/%d) after error: %v",
				p.stream, attempt+1, maxRetries, lastErr)

			// Backoff with jitter between retries
			baseDelay := time.Duration(1<<uint(attempt-1)) * time.Second
			jitter := time.Duration(float64(baseDelay) * (0.75 + 0.5*float64(time.Now().Nanosecond())/float64(1e9)))
			time.Sleep(jitter)
		}

		if err := p.conn.Exec(ctx, query); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("failed to insert into stream after %d attempts: %w", maxRetries, lastErr)
}

// Close closes the underlying connection
func (p *StreamPublisher) Close() error {
	return p.conn.Close()
}

func quote(s string) string {
	return fmt.Sprintf("'%s'", strings.ReplaceAll(s, "'", "''"))
}
