package types

import (
	"fmt"
	"strings"
)

// BCFLAG is the treatment of a domain edge along one axis.
type BCFLAG uint8

const (
	BC_None     BCFLAG = iota // Open edge, no neighbour patch beyond it
	BC_Periodic               // The far edge is the neighbour
)

var BCNameMap = map[string]BCFLAG{
	"none":     BC_None,
	"open":     BC_None,
	"periodic": BC_Periodic,
}

func (bc BCFLAG) String() string {
	switch bc {
	case BC_None:
		return "None"
	case BC_Periodic:
		return "Periodic"
	}
	return fmt.Sprintf("BCFLAG(%d)", uint8(bc))
}

func NewBCFLAG(label string) (bc BCFLAG, err error) {
	var ok bool
	if bc, ok = BCNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unknown boundary condition %q", label)
	}
	return
}

// Face labels of a patch, indexed by 2*axis + side.
var FaceNames = [6]string{"xmin", "xmax", "ymin", "ymax", "zmin", "zmax"}
