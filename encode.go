package main

import (
	"fmt"

	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
)

//encodeTile serializes the features into a single-layer vector tile in
//tile-local pixel coordinates and gzips the result.
func encodeTile(features []*geojson.Feature, extent int, layerName string) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	fc.Features = features
	layer := mvt.NewLayer(layerName, fc)
	layer.Extent = uint32(extent)
	data, err := mvt.MarshalGzipped(mvt.Layers{layer})
	if err != nil {
		return nil, fmt.Errorf("encode layer %s: %w", layerName, err)
	}
	return data, nil
}
