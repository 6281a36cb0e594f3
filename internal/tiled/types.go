// Package tiled reads and writes Tiled JSON maps and tilesets, converting
// wang sets to terrain sets and tile layers to grids.
package tiled

import (
	"encoding/json"
	"errors"
)

var (
	ErrLayerNotFound       = errors.New("layer not found")
	ErrNotTileLayer        = errors.New("not a tile layer")
	ErrTilesetNotFound     = errors.New("tileset not found")
	ErrWangSetNotFound     = errors.New("wang set not found")
	ErrUnsupportedEncoding = errors.New("unsupported layer encoding")
)

// Map is a Tiled JSON map (.tmj)
type Map struct {
	Type         string     `json:"type,omitempty"`
	Version      string     `json:"version,omitempty"`
	TiledVersion string     `json:"tiledversion,omitempty"`
	Orientation  string     `json:"orientation"`
	RenderOrder  string     `json:"renderorder,omitempty"`
	Infinite     bool       `json:"infinite"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	TileWidth    int        `json:"tilewidth"`
	TileHeight   int        `json:"tileheight"`
	NextLayerID  int        `json:"nextlayerid,omitempty"`
	NextObjectID int        `json:"nextobjectid,omitempty"`
	Layers       []Layer    `json:"layers"`
	Tilesets     []Tileset  `json:"tilesets"`
	Properties   []Property `json:"properties,omitempty"`
}

// Layer is a map layer. Only tile layers carry Data; other layer kinds are
// kept as loaded.
type Layer struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Visible     bool    `json:"visible"`
	Opacity     float64 `json:"opacity"`
	Encoding    string  `json:"encoding,omitempty"`
	Compression string  `json:"compression,omitempty"`
	// Data is a GID array, or a base64 string when Encoding is "base64"
	Data       json.RawMessage `json:"data,omitempty"`
	Objects    json.RawMessage `json:"objects,omitempty"`
	Layers     []Layer         `json:"layers,omitempty"`
	Properties []Property      `json:"properties,omitempty"`
}

// Tileset is a tileset embedded in a map, a reference to an external one
// (Source set), or a standalone tileset file (.tsj, FirstGID unset).
type Tileset struct {
	FirstGID     int               `json:"firstgid,omitempty"`
	Source       string            `json:"source,omitempty"`
	Type         string            `json:"type,omitempty"`
	Version      string            `json:"version,omitempty"`
	TiledVersion string            `json:"tiledversion,omitempty"`
	Name         string            `json:"name,omitempty"`
	TileWidth    int               `json:"tilewidth,omitempty"`
	TileHeight   int               `json:"tileheight,omitempty"`
	TileCount    int               `json:"tilecount,omitempty"`
	Columns      int               `json:"columns,omitempty"`
	Margin       int               `json:"margin,omitempty"`
	Spacing      int               `json:"spacing,omitempty"`
	Image        string            `json:"image,omitempty"`
	ImageWidth   int               `json:"imagewidth,omitempty"`
	ImageHeight  int               `json:"imageheight,omitempty"`
	Tiles        []json.RawMessage `json:"tiles,omitempty"`
	WangSets     []WangSet         `json:"wangsets,omitempty"`
	Properties   []Property        `json:"properties,omitempty"`
}

// WangSet is Tiled's terrain set. Colors are referenced by 1-based index
// from wang ids; 0 means unset.
type WangSet struct {
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Tile       int         `json:"tile"`
	Colors     []WangColor `json:"colors"`
	WangTiles  []WangTile  `json:"wangtiles"`
	Properties []Property  `json:"properties,omitempty"`
}

// WangColor is one terrain of a wang set
type WangColor struct {
	Name        string  `json:"name"`
	Color       string  `json:"color"`
	Tile        int     `json:"tile"`
	Probability float64 `json:"probability"`
}

// WangTile assigns colors to the 8 slots of a tile, in N, NE, E, SE, S, SW,
// W, NW order
type WangTile struct {
	TileID int    `json:"tileid"`
	WangID [8]int `json:"wangid"`
}

// Property is a custom property
type Property struct {
	Name  string      `json:"name"`
	Type  string      `json:"type,omitempty"`
	Value interface{} `json:"value"`
}
