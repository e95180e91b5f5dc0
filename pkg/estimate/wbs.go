package estimate

import "fmt"

// Task is a leaf of the work breakdown structure. BaseHours is zero
// until CalculateBaseHours resolves the task's baseline formula.
type Task struct {
	Code      string  `json:"wbs_code"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	BaseHours float64 `json:"base_hours"`
}

// Phase groups the ordered tasks of one delivery phase.
type Phase struct {
	Name  string `json:"phase"`
	Code  string `json:"wbs_code"`
	Tasks []Task `json:"tasks"`
}

// Phase names, in delivery order.
const (
	PhaseManagement   = "项目管理"
	PhaseRequirements = "需求分析"
	PhaseDevelopment  = "开发实施"
	PhaseTesting      = "测试验证"
	PhaseDelivery     = "培训交付"
)

// maxExtractionTasks caps how many per-source extraction tasks appear in
// the WBS. This is a display cap only: per-source hour formulas still use
// the full data source count, so billing stays accurate for projects
// with more than five sources.
const maxExtractionTasks = 5

// GenerateWBS builds the five-phase task tree for a project. Phases 1,
// 2, 4 and 5 are fixed; the development phase scales with the project's
// data sources and grows a reporting task and a custom-requirements task
// only when those counts are non-zero. The function is pure and
// deterministic.
func GenerateWBS(p ProjectInfo) []Phase {
	management := Phase{
		Name: PhaseManagement,
		Code: "1",
		Tasks: []Task{
			{Code: "1.1", Name: "项目启动", Type: "pm_kickoff"},
			{Code: "1.2", Name: "项目监控", Type: "pm_weekly_tracking"},
			{Code: "1.3", Name: "里程碑评审", Type: "pm_milestone_review"},
			{Code: "1.4", Name: "项目收尾", Type: "pm_closure"},
		},
	}

	requirements := Phase{
		Name: PhaseRequirements,
		Code: "2",
		Tasks: []Task{
			{Code: "2.1", Name: "业务调研", Type: "req_business_research"},
			{Code: "2.2", Name: "需求访谈", Type: "req_interview"},
			{Code: "2.3", Name: "接口表设计", Type: "req_interface_design"},
			{Code: "2.4", Name: "需求确认", Type: "req_confirmation"},
		},
	}

	devTasks := []Task{
		{Code: "3.1", Name: "环境准备", Type: "dev_environment_setup"},
		{Code: "3.2", Name: "产品配置", Type: "dev_product_config"},
	}
	n := p.DataSourcesCount
	if n > maxExtractionTasks {
		n = maxExtractionTasks
	}
	for i := 1; i <= n; i++ {
		devTasks = append(devTasks, Task{
			Code: fmt.Sprintf("3.3.%d", i),
			Name: fmt.Sprintf("数据源%d接入开发", i),
			Type: "dev_data_extraction",
		})
	}
	devTasks = append(devTasks,
		Task{Code: "3.4", Name: "数据清洗转换", Type: "dev_data_transformation"},
		Task{Code: "3.5", Name: "数据加载", Type: "dev_data_loading"},
	)
	if p.ReportsCount > 0 {
		devTasks = append(devTasks, Task{Code: "3.6", Name: "报表开发", Type: "dev_report"})
	}
	if p.CustomRequirementsCount > 0 {
		devTasks = append(devTasks, Task{Code: "3.7", Name: "个性化需求开发", Type: "dev_custom_requirement"})
	}
	development := Phase{Name: PhaseDevelopment, Code: "3", Tasks: devTasks}

	testing := Phase{
		Name: PhaseTesting,
		Code: "4",
		Tasks: []Task{
			{Code: "4.1", Name: "单元测试", Type: "test_unit"},
			{Code: "4.2", Name: "SIT测试", Type: "test_sit"},
			{Code: "4.3", Name: "UAT测试支持", Type: "test_uat_support"},
			{Code: "4.4", Name: "试运行支持", Type: "test_trial_support"},
			{Code: "4.5", Name: "问题修复缓冲", Type: "test_bug_fixing"},
		},
	}

	delivery := Phase{
		Name: PhaseDelivery,
		Code: "5",
		Tasks: []Task{
			{Code: "5.1", Name: "用户培训", Type: "delivery_training"},
			{Code: "5.2", Name: "文档编制", Type: "delivery_documentation"},
			{Code: "5.3", Name: "项目验收", Type: "delivery_acceptance"},
		},
	}

	return []Phase{management, requirements, development, testing, delivery}
}
