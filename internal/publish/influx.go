package publish

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Influx writes one "fix" point per message.
type Influx struct {
	client influxdb2.Client
	writer pointWriter
}

func NewInflux(url, token, org, bucket string) *Influx {
	client := influxdb2.NewClient(url, token)
	return &Influx{client: client, writer: client.WriteAPIBlocking(org, bucket)}
}

func (i *Influx) Name() string { return "influx" }

func (i *Influx) Publish(ctx context.Context, msg Message) error {
	if err := i.writer.WritePoint(ctx, fixPoint(msg)); err != nil {
		return fmt.Errorf("failed to write point: %w", err)
	}
	return nil
}

func fixPoint(msg Message) *write.Point {
	ts := msg.Fix.Time()
	if ts.IsZero() {
		ts = msg.ReceivedUTC
	}
	return influxdb2.NewPoint("fix",
		map[string]string{
			"session": msg.Session,
			"type":    msg.Type.String(),
		},
		map[string]interface{}{
			"valid":       msg.Fix.Valid,
			"lat_deg":     msg.LatDeg,
			"lon_deg":     msg.LonDeg,
			"altitude_m":  msg.Fix.AltitudeM,
			"speed_kph":   msg.Fix.SpeedKph,
			"heading_deg": msg.Fix.HeadingDeg,
			"hdop":        msg.Fix.HDOP,
			"vdop":        msg.Fix.VDOP,
			"satellites":  int64(msg.Fix.Satellites),
		},
		ts)
}

func (i *Influx) Close() error {
	if i.client != nil {
		i.client.Close()
	}
	return nil
}
