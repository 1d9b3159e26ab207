package qdrant

var PointID = pointID
