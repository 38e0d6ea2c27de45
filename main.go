package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shiena/ansicolor"
	log "github.com/sirupsen/logrus"

	nested "github.com/antonfisher/nested-logrus-formatter"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/viper"
)

// flag
var (
	hf         bool
	cf         string
	minExtent  int
	maxExtent  int
	zoomAdjust int
	minZoom    int
	interval   float64
	boundsStr  string
	layerName  string
	tileBuffer int
	dryRun     bool
)

func init() {
	flag.BoolVar(&hf, "h", false, "this help")
	flag.StringVar(&cf, "c", "conf.toml", "set config `file`")
	flag.IntVar(&minExtent, "min-extent", 256, "minimum vector tile extent")
	flag.IntVar(&maxExtent, "max-extent", 512, "maximum vector tile extent (at max zoom)")
	flag.IntVar(&zoomAdjust, "zoom-adjust", 0, "zoom levels to add to the computed max zoom")
	flag.IntVar(&minZoom, "min-zoom", 0, "minimum zoom level to generate")
	flag.Float64Var(&interval, "interval", 0, "data interval to vectorize on (0 = raw values + sieve)")
	flag.StringVar(&boundsStr, "bounds", "", "tiling bounds override as `west,south,east,north`")
	flag.StringVar(&layerName, "layer", "", "vector layer name (default from config)")
	flag.IntVar(&tileBuffer, "buffer", -1, "extra tiles around the bounds (default from config)")
	flag.BoolVar(&dryRun, "dry-run", false, "report planned tiles/zooms/extents without writing")
	flag.Usage = usage
	//InitLog 初始化日志
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		ShowFullLevel:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	// then wrap the log output with it
	log.SetOutput(ansicolor.NewAnsiColorWriter(os.Stdout))
	log.SetLevel(log.DebugLevel)
}

func usage() {
	fmt.Fprintf(os.Stderr, `rastertiler version: rastertiler/v0.1.0
Usage: rastertiler [options] input_raster output_mbtiles
       rastertiler dump input_mbtiles output_directory
       rastertiler clump input_mbtiles output_clump output_index
`)
	flag.PrintDefaults()
}

func main() {
	flag.Parse()
	if hf {
		flag.Usage()
		return
	}
	args := flag.Args()
	if len(args) > 0 {
		switch args[0] {
		case "dump":
			if len(args) != 3 {
				flag.Usage()
				os.Exit(2)
			}
			if err := dumpTiles(args[1], args[2]); err != nil {
				log.Fatal(err)
			}
			return
		case "clump":
			if len(args) != 4 {
				flag.Usage()
				os.Exit(2)
			}
			if err := clumpTiles(args[1], args[2], args[3]); err != nil {
				log.Fatal(err)
			}
			return
		case "tile":
			args = args[1:]
		}
	}
	if len(args) < 1 || (len(args) < 2 && !dryRun) {
		flag.Usage()
		os.Exit(2)
	}

	initConf(cf)

	job := &JobConfig{
		Name:       viper.GetString("app.title"),
		SrcPath:    args[0],
		LayerName:  layerName,
		MinZoom:    minZoom,
		MinExtent:  minExtent,
		MaxExtent:  maxExtent,
		ZoomAdjust: zoomAdjust,
		Interval:   interval,
		Buffer:     tileBuffer,
		DryRun:     dryRun,
	}
	if len(args) > 1 {
		job.OutPath = args[1]
	}
	if job.LayerName == "" {
		job.LayerName = viper.GetString("tile.layer")
	}
	if job.Buffer < 0 {
		job.Buffer = viper.GetInt("tile.buffer")
	}
	if boundsStr != "" {
		b, err := parseBounds(boundsStr)
		if err != nil {
			log.Fatalf("bad -bounds: %s", err)
		}
		job.Bounds = b
	}
	filters, err := filtersFromNames(viper.GetStringSlice("quantize.filters"))
	if err != nil {
		log.Fatal(err)
	}
	job.Filters = filters

	start := time.Now()
	task, err := NewTask(job)
	if err != nil {
		log.Fatal(err)
	}
	if err := task.Run(); err != nil {
		log.Fatal(err)
	}
	secs := time.Since(start).Seconds()
	log.Printf("%.3fs finished...", secs)
}
