package main

import (
	"database/sql"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/teris-io/shortid"
	pb "gopkg.in/cheggaaa/pb.v1"
)

//Task 切片任务
type Task struct {
	ID           string
	Job          *JobConfig
	Src          *Raster
	MaxZoom      int
	GeoBounds    orb.Bound
	Total        int64
	Bar          *pb.ProgressBar
	db           *sql.DB
	workerCount  int
	savePipeSize int
	wg           sync.WaitGroup
	saveWg       sync.WaitGroup
	workers      chan struct{}
	savingpipe   chan Tile
	failed       int64
	sizes        [][]int //written only by the savePipe goroutine
	render       func(*Raster, *JobConfig, maptile.Tile, int) (Tile, error)
}

//NewTask 创建切片任务
func NewTask(job *JobConfig) (*Task, error) {
	if err := job.validate(); err != nil {
		return nil, err
	}
	src, err := OpenRaster(job.SrcPath)
	if err != nil {
		return nil, err
	}

	geo := src.GeoBound()
	if job.Bounds != nil {
		geo = *job.Bounds
	}
	wm := src.MercatorBound()
	maxZoom := maxZoomFor(wm, src.Width, src.Height, job.MaxExtent) + job.ZoomAdjust
	if maxZoom > ZoomMax {
		maxZoom = ZoomMax
	}
	if maxZoom < job.MinZoom {
		return nil, fmt.Errorf("computed max zoom %d below min zoom %d", maxZoom, job.MinZoom)
	}

	id, _ := shortid.Generate()
	task := &Task{
		ID:        id,
		Job:       job,
		Src:       src,
		MaxZoom:   maxZoom,
		GeoBounds: geo,
	}
	task.workerCount = viper.GetInt("task.workers")
	if task.workerCount < 1 {
		task.workerCount = 1
	}
	task.savePipeSize = viper.GetInt("task.savepipe")
	if task.savePipeSize < 1 {
		task.savePipeSize = 1
	}
	task.workers = make(chan struct{}, task.workerCount)
	task.savingpipe = make(chan Tile, task.savePipeSize)
	task.sizes = make([][]int, maxZoom+1)
	task.render = renderTile
	return task, nil
}

//Run 开启切片任务
func (task *Task) Run() error {
	tiles := coverTiles(task.GeoBounds, task.Job.MinZoom, task.MaxZoom, task.Job.Buffer)
	task.Total = int64(len(tiles))
	log.Infof("task %s generating %d tiles, zooms %d-%d", task.ID, len(tiles), task.Job.MinZoom, task.MaxZoom)
	if task.Job.DryRun {
		task.reportPlan(tiles)
		return nil
	}

	meta, err := metaItems(task.Job, task.MaxZoom, task.GeoBounds)
	if err != nil {
		return err
	}
	db, err := setupMBTiles(task.Job.OutPath, meta)
	if err != nil {
		return fmt.Errorf("setup container %s: %w", task.Job.OutPath, err)
	}
	task.db = db

	//tile cost follows geography; shuffling spreads the expensive region
	//across the whole run instead of leaving it as a straggler tail
	rand.Shuffle(len(tiles), func(i, j int) {
		tiles[i], tiles[j] = tiles[j], tiles[i]
	})

	task.Bar = pb.New64(task.Total).Prefix("Tiling : ")
	task.Bar.Start()
	task.saveWg.Add(1)
	go task.savePipe()
	for _, t := range tiles {
		task.workers <- struct{}{}
		task.wg.Add(1)
		go task.tileWorker(t)
	}
	task.wg.Wait()
	close(task.savingpipe)
	task.saveWg.Wait()
	if err := closeMBTiles(task.db); err != nil {
		return err
	}
	task.Bar.FinishPrint(fmt.Sprintf("task %s finished ~", task.ID))
	task.reportSizes()
	if n := atomic.LoadInt64(&task.failed); n > 0 {
		log.Warnf("task %s: %d tiles failed, see diagnostics above", task.ID, n)
	}
	return nil
}

//savePipe 保存瓦片管道: the single writer, everything funnels through here
func (task *Task) savePipe() {
	defer task.saveWg.Done()
	for tile := range task.savingpipe {
		if err := saveToMBTile(tile, task.db); err != nil {
			atomic.AddInt64(&task.failed, 1)
			log.Errorf("save %v tile to mbtiles db error ~ %s", tile.T, err)
			continue
		}
		z := int(tile.T.Z)
		task.sizes[z] = append(task.sizes[z], len(tile.C))
	}
}

//tileWorker 单个瓦片的生成流程
func (task *Task) tileWorker(t maptile.Tile) {
	defer task.wg.Done()
	defer func() {
		<-task.workers
	}()
	defer func() {
		//a repair blowup on one tile must not sink the whole job
		if r := recover(); r != nil {
			atomic.AddInt64(&task.failed, 1)
			log.Errorf("tile %v vectorize panic ~ %v", t, r)
		}
	}()
	tile, err := task.render(task.Src, task.Job, t, task.MaxZoom)
	if err != nil {
		atomic.AddInt64(&task.failed, 1)
		log.Errorf("tile %v failed ~ %s", t, err)
		return
	}
	task.savingpipe <- tile
	task.Bar.Increment()
}

//renderTile resamples, quantizes, vectorizes and encodes one tile. It
//shares nothing mutable with other tiles; src is read-only.
func renderTile(src *Raster, job *JobConfig, t maptile.Tile, maxZoom int) (Tile, error) {
	extent := extentFor(int(t.Z), maxZoom, job.MinExtent, job.MaxExtent)
	dst, err := rasterizeTile(src, t, extent, ResamplingMode)
	if err != nil {
		return Tile{}, err
	}

	var g *IntGrid
	if job.Interval > 0 {
		applyFilters(dst, job.Filters)
		g = quantizeGrid(dst, job.Interval)
	} else {
		g = quantizeGrid(dst, 0)
		sieveGrid(g, sieveMinPixels)
	}

	shapes := traceShapes(g)
	features, err := vectorizeRegions(shapes, g.Width, g.Height)
	if err != nil {
		return Tile{}, err
	}
	data, err := encodeTile(features, extent, job.LayerName)
	if err != nil {
		return Tile{}, err
	}
	return Tile{T: t, C: data}, nil
}

func (task *Task) reportPlan(tiles []maptile.Tile) {
	counts := make([]int, task.MaxZoom+1)
	for _, t := range tiles {
		counts[t.Z]++
	}
	for z := task.Job.MinZoom; z <= task.MaxZoom; z++ {
		log.Infof("zoom %2d: %6d tiles, extent %d", z, counts[z],
			extentFor(z, task.MaxZoom, task.Job.MinExtent, task.Job.MaxExtent))
	}
}

func (task *Task) reportSizes() {
	for z, sizes := range task.sizes {
		if len(sizes) == 0 {
			continue
		}
		min, max, sum := sizes[0], sizes[0], 0
		for _, s := range sizes {
			if s < min {
				min = s
			}
			if s > max {
				max = s
			}
			sum += s
		}
		mean := float64(sum) / float64(len(sizes))
		log.Infof("zoom %2d: %d tiles, %.2f/%.2f/%.2f kb min/mean/max",
			z, len(sizes), float64(min)/1000, mean/1000, float64(max)/1000)
	}
}
