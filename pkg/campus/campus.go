// Package campus ships the built-in campus map: locations with their
// introductions, the paths between them, the recommended walking routes and
// the fallback positions used when an imported data set omits a location those
// routes depend on.
package campus

import (
	"github.com/ritzau/campus-nav/pkg/model"
	"github.com/ritzau/campus-nav/pkg/pathfind"
)

var locations = []model.Location{
	{Name: "青蓝门", X: 220, Y: 300, Introduction: "校园主要入口之一，连接校内与外部主干道，交通便利。"},
	{Name: "正大门", X: 800, Y: 1180, Introduction: "学校正门，气势恢宏，是学校的标志性入口。"},
	{Name: "望城门", X: 160, Y: 620, Introduction: "位于校园西侧，靠近教学区，方便学生进出。"},
	{Name: "长胜门", X: 260, Y: 980, Introduction: "靠近运动区的侧门，周边有多个体育场馆。"},
	{Name: "惟义楼", X: 600, Y: 860, Introduction: "主要教学楼之一，设有多个多媒体教室和实验室。"},
	{Name: "名达楼", X: 700, Y: 520, Introduction: "综合性教学楼，以文科类教学为主。"},
	{Name: "方荫楼", X: 1180, Y: 700, Introduction: "理工科教学与实验楼，配备先进的实验设备。"},
	{Name: "先骕楼", X: 1060, Y: 920, Introduction: "科研大楼，多个重点实验室所在地。"},
	{Name: "图书馆", X: 820, Y: 960, Introduction: "学校文献信息中心，藏书丰富，学习氛围浓厚。"},
	{Name: "静湖", X: 790, Y: 730, Introduction: "校园内的人工湖，风景优美，是休闲散步的好去处。"},
	{Name: "校址纪念碑", X: 930, Y: 610, Introduction: "纪念学校建校地址的标志性建筑。"},
	{Name: "正大坊", X: 800, Y: 1070, Introduction: "校内标志性牌坊，具有深厚的文化底蕴。"},
	{Name: "洁琼楼", X: 420, Y: 430, Introduction: "女生宿舍楼，环境整洁，设施完善。"},
	{Name: "鹅湖湾", X: 1400, Y: 830, Introduction: "校园内的自然景观区，生态环境良好。"},
}

var paths = []model.Path{
	{From: "青蓝门", To: "望城门", Weight: 300},
	{From: "青蓝门", To: "洁琼楼", Weight: 250},
	{From: "正大门", To: "正大坊", Weight: 100},
	{From: "正大门", To: "校址纪念碑", Weight: 150},
	{From: "望城门", To: "长胜门", Weight: 400},
	{From: "望城门", To: "洁琼楼", Weight: 200},
	{From: "长胜门", To: "惟义楼", Weight: 350},
	{From: "惟义楼", To: "图书馆", Weight: 250},
	{From: "惟义楼", To: "静湖", Weight: 200},
	{From: "名达楼", To: "静湖", Weight: 250},
	{From: "名达楼", To: "校址纪念碑", Weight: 150},
	{From: "方荫楼", To: "校址纪念碑", Weight: 300},
	{From: "方荫楼", To: "鹅湖湾", Weight: 250},
	{From: "先骕楼", To: "图书馆", Weight: 250},
	{From: "先骕楼", To: "方荫楼", Weight: 350},
	{From: "先骕楼", To: "静湖", Weight: 300},
	{From: "正大坊", To: "青蓝门", Weight: 450},
	{From: "静湖", To: "校址纪念碑", Weight: 200},
	{From: "鹅湖湾", To: "先骕楼", Weight: 400},
	{From: "洁琼楼", To: "名达楼", Weight: 300},
}

var routes = []pathfind.FixedRoute{
	{
		Name:  "正门游览线",
		Stops: []string{"正大门", "正大坊", "青蓝门", "洁琼楼", "名达楼", "静湖"},
	},
	{
		Name:  "教学科研线",
		Stops: []string{"校址纪念碑", "静湖", "惟义楼", "图书馆", "先骕楼", "鹅湖湾"},
	},
}

// Fallback positions for stops of the recommended routes
var defaultPositions = []string{"正大门", "正大坊", "校址纪念碑", "静湖", "图书馆", "鹅湖湾"}

// Seed returns a fresh copy of the built-in map
func Seed() model.Snapshot {
	s := model.Snapshot{Locations: locations, Paths: paths}.Clone()
	model.SortPaths(s.Paths)
	return s
}

// RecommendedRoutes returns the built-in walking routes
func RecommendedRoutes() []pathfind.FixedRoute {
	out := make([]pathfind.FixedRoute, len(routes))
	for i, r := range routes {
		out[i] = pathfind.FixedRoute{Name: r.Name, Stops: append([]string(nil), r.Stops...)}
	}
	return out
}

// DefaultPositions returns the fallback locations injected on merge
func DefaultPositions() []model.Location {
	byName := make(map[string]model.Location, len(locations))
	for _, loc := range locations {
		byName[loc.Name] = loc
	}

	out := make([]model.Location, 0, len(defaultPositions))
	for _, name := range defaultPositions {
		out = append(out, byName[name])
	}
	return out
}
