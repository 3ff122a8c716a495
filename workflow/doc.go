/*
Package workflow 提供 botflow 的类型化工作流模型与执行引擎。

# 概述

workflow 包实现了块/连线（Block/Wire）图模型：块声明类型化的输入输出槽，
连线在构建期通过 TypeSystem 做结构化类型校验，Executor 以数据流方式遍历图，
在并发上限与单次运行超时约束下执行就绪节点，并支持条件分支与循环。

# 核心类型

  - TypeSystem — 类型注册与兼容性检查（带缓存，支持 Any 通配与 Union/列表归一化）
  - Block      — 工作单元接口；内置 ConditionBlock / LoopBlock / LoopEndBlock
  - Workflow   — 不可变的图值对象（块、连线、单次运行配置）
  - Wire       — 类型化数据流边（源块输出 → 目标块输入）
  - Executor   — 调度器：入口发现、就绪判定、结果传播、准入控制、超时取消
  - Registry   — 工作流注册表（id → *Workflow），供调度器解析目标图

# 执行模型

单个协调协程驱动图遍历与簿记，块体通过 io/cpu 两个有界工作池执行，
单次运行内的并发块数由计数信号量限制。运行状态（results/variables）
由 Executor 独占，不跨运行共享。
*/
package workflow
