// 输入数据装载，从文件系统或MongoDB加载人口
package input

import (
	"context"
	"encoding/json"
	"os"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/google/uuid"
	"github.com/tsinghua-fib-lab/agentmobility-oss/entity/person"
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/config"
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/randengine"
	"go.mongodb.org/mongo-driver/bson"
)

// Input 输入数据
// 功能：存储仿真所需的全部输入数据
type Input struct {
	Persons []*person.Person
}

// Init 装载数据
// 功能：根据配置加载人口数据并完成装载期校验与抽样
// 参数：c-配置对象，engine-随机数引擎（决策agent抽样）
// 返回：加载完成的输入数据指针
// 算法说明：
// 1. 数据来源：文件路径优先于MongoDB
// 2. 规范化：活动出发触发时刻统一置为未设置，缺失的活动ID补全
// 3. 校验：家与活动位置必须落在世界包围盒内，越界视为数据缺陷
// 4. 人数上限：超出max_persons时截断
// 5. 决策agent抽样：按配置数量无放回抽取，置DecisionCapable标记
func Init(c config.Config, engine *randengine.Engine) *Input {
	if c.Input.Person == nil {
		log.Panic("input: person source must be specified")
	}

	var persons []*person.Person
	if c.Input.Person.File != "" {
		persons = loadFromFile(c.Input.Person.File)
	} else {
		persons = loadFromMongo(c.Input.URI, c.Input.Person)
	}
	if len(persons) == 0 {
		log.Panic("input: no persons loaded")
	}

	bbox := c.World.BBox.ToBBox()
	for _, p := range persons {
		if p.Identity.Home != nil && !bbox.Contains(*p.Identity.Home) {
			log.Panicf("input: person %s home %+v outside world bbox", p.ID, *p.Identity.Home)
		}
		for _, a := range p.Identity.Activities {
			a.ScheduledStartTime = person.UnsetTime
			if a.ID == "" {
				a.ID = uuid.NewString()
			}
			if !bbox.Contains(a.Location) {
				log.Panicf("input: person %s activity <%s> location %+v outside world bbox",
					p.ID, a.Purpose, a.Location)
			}
		}
		// 初始位置取家，没有家则取第一个活动的位置
		if p.Identity.Home != nil {
			p.State.LastLocation = *p.Identity.Home
		} else if len(p.Identity.Activities) > 0 {
			p.State.LastLocation = p.Identity.Activities[0].Location
		}
	}

	if c.Input.MaxPersons > 0 && len(persons) > c.Input.MaxPersons {
		log.Warnf("input: %d persons loaded, truncated to %d", len(persons), c.Input.MaxPersons)
		persons = persons[:c.Input.MaxPersons]
	}

	if c.Input.DecisionAgents > 0 {
		for _, i := range engine.Sample(len(persons), c.Input.DecisionAgents) {
			persons[i].DecisionCapable = true
		}
	}

	log.Infof("input: %d persons loaded", len(persons))
	return &Input{Persons: persons}
}

// loadFromFile 从JSON文件加载人口
func loadFromFile(path string) []*person.Person {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Panicf("input: failed to read person file: %v", err)
	}
	var persons []*person.Person
	if err := json.Unmarshal(data, &persons); err != nil {
		log.Panicf("input: failed to parse person file: %v", err)
	}
	return persons
}

// loadFromMongo 从MongoDB加载人口
func loadFromMongo(uri string, path *config.InputPath) []*person.Person {
	if uri == "" {
		log.Panic("input: mongodb uri must be specified when person file is not set")
	}
	client := mongoutil.NewClient(uri)
	defer client.Disconnect(context.Background())

	coll := client.Database(path.DB).Collection(path.Col)
	cursor, err := coll.Find(context.Background(), bson.D{})
	if err != nil {
		log.Panicf("input: failed to query persons from mongodb: %v", err)
	}
	defer cursor.Close(context.Background())
	var persons []*person.Person
	if err := cursor.All(context.Background(), &persons); err != nil {
		log.Panicf("input: failed to decode persons from mongodb: %v", err)
	}
	return persons
}
