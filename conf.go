package main

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// initConf 初始化配置
func initConf(cfgFile string) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		log.Warnf("config file(%s) not exist", cfgFile)
	}
	viper.SetConfigType("toml")
	viper.SetConfigFile(cfgFile)
	viper.AutomaticEnv() // read in environment variables that match
	err := viper.ReadInConfig()
	if err != nil {
		log.Warnf("read config file(%s) error, details: %s", viper.ConfigFileUsed(), err)
	}
	viper.SetDefault("app.version", "v 0.1.0")
	viper.SetDefault("app.title", "Raster Tiler")
	viper.SetDefault("task.workers", runtime.NumCPU())
	viper.SetDefault("task.savepipe", 8)
	viper.SetDefault("tile.layer", "raster")
	viper.SetDefault("tile.buffer", 1)
	viper.SetDefault("quantize.filters", []string{})
}

//JobConfig is the immutable description of one tiling job; every worker
//gets the same pointer and only ever reads it.
type JobConfig struct {
	Name       string
	SrcPath    string
	OutPath    string
	LayerName  string
	MinZoom    int
	MinExtent  int
	MaxExtent  int
	ZoomAdjust int
	//Interval is the value bucket width; zero or less disables bucketing
	//and vectorizes raw values with the sieve applied instead.
	Interval float64
	Buffer   int
	//Bounds optionally overrides the source raster's geographic bounds.
	Bounds  *orb.Bound
	DryRun  bool
	Filters []GridFilter
}

func (job *JobConfig) validate() error {
	if job.SrcPath == "" {
		return fmt.Errorf("source raster path is required")
	}
	if job.OutPath == "" && !job.DryRun {
		return fmt.Errorf("output path is required")
	}
	if job.MinExtent <= 0 || job.MaxExtent <= 0 {
		return fmt.Errorf("extents must be positive, got min %d max %d", job.MinExtent, job.MaxExtent)
	}
	if job.MaxExtent < job.MinExtent {
		return fmt.Errorf("max extent %d below min extent %d", job.MaxExtent, job.MinExtent)
	}
	if job.MinZoom < ZoomMin || job.MinZoom > ZoomMax {
		return fmt.Errorf("min zoom %d outside [%d, %d]", job.MinZoom, ZoomMin, ZoomMax)
	}
	return nil
}

//parseBounds reads a "west,south,east,north" geographic box.
func parseBounds(s string) (*orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("%w: want west,south,east,north, got %q", errBadBounds, s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", errBadBounds, p)
		}
		v[i] = f
	}
	if v[0] >= v[2] || v[1] >= v[3] {
		return nil, fmt.Errorf("%w: west/south must be below east/north", errBadBounds)
	}
	b := orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}
	return &b, nil
}
